package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"giveaway-bot/internal/common/config"
	"giveaway-bot/internal/common/logger"
	"giveaway-bot/internal/common/middleware"
	discorddelivery "giveaway-bot/internal/features/giveaway/delivery/discord"
	httpdelivery "giveaway-bot/internal/features/giveaway/delivery/http"
	giveawayrepo "giveaway-bot/internal/features/giveaway/repository"
	giveawayredis "giveaway-bot/internal/features/giveaway/repository/redis"
	giveawayservice "giveaway-bot/internal/features/giveaway/service"
	guildredis "giveaway-bot/internal/features/guild/repository/redis"
	guildservice "giveaway-bot/internal/features/guild/service"
	discordplatform "giveaway-bot/internal/platform/discord"
	redisplatform "giveaway-bot/internal/platform/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger.Init("giveaway-bot", cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("Starting giveaway bot")

	redisClient, err := redisplatform.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Redis connection established")

	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	giveawayRepo := giveawayredis.NewGiveawayRepository(redisClient)
	guildRepo := guildredis.NewGuildRepository(redisClient)

	guildSvc := guildservice.NewGuildService(guildRepo)
	giveawaySvc := giveawayservice.NewGiveawayService(
		giveawayRepo,
		guildSvc,
		discordplatform.NewGateway(session),
		discorddelivery.NewRenderer(),
		cfg.Giveaway.SessionTimeout,
	)

	handler := discorddelivery.NewHandler(giveawaySvc, guildSvc, cfg.Discord.AdminIDs)
	handler.Register(session)

	if err := session.Open(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open Discord session")
	}
	defer session.Close()
	logger.Info().Msg("Discord session opened")

	for _, command := range discorddelivery.Commands() {
		if _, err := session.ApplicationCommandCreate(session.State.User.ID, "", command); err != nil {
			logger.Fatal().Err(err).Str("command", command.Name).Msg("Failed to register command")
		}
	}
	logger.Info().Msg("Application commands registered")

	scheduler := giveawayservice.NewExpirationService(giveawayRepo, giveawaySvc, cfg.Giveaway.PollInterval)
	scheduler.Start()
	defer scheduler.Stop()

	server := newServer(cfg, giveawaySvc, giveawayRepo)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

func newServer(cfg *config.Config, svc giveawayservice.GiveawayService, repo giveawayrepo.GiveawayRepository) *http.Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	httpdelivery.NewGiveawayHandler(svc, repo).RegisterRoutes(api)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
}
