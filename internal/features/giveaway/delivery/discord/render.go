package discord

import (
	"fmt"
	"strings"

	"giveaway-bot/internal/features/giveaway/models"
	"giveaway-bot/internal/features/giveaway/service"
	guildservice "giveaway-bot/internal/features/guild/service"
)

// textRenderer produces the plain-text content for every giveaway view.
type textRenderer struct{}

var _ service.Renderer = (*textRenderer)(nil)

func NewRenderer() *textRenderer {
	return &textRenderer{}
}

func (r *textRenderer) DraftPreview(g *models.Giveaway, endDate *guildservice.ResolvedTime) string {
	lines := []string{
		"👀 **Here is a preview of your giveaway!**",
		"",
		"**" + g.Title + "**",
		g.Description,
		"",
		"Prize: " + g.Prize,
		fmt.Sprintf("Max Winners: %d", g.WinnerCount),
		"Ends on " + endDate.Medium,
	}
	if len(g.AllowedRoles) > 0 {
		lines = append(lines, "Allowed Roles: "+mentionRoles(g.AllowedRoles))
	}
	lines = append(lines, "", "Click on the **`Confirm`** button to create your giveaway here.")
	return strings.Join(lines, "\n")
}

func (r *textRenderer) OpenMessage(g *models.Giveaway, participants int64, endDate *guildservice.ResolvedTime) string {
	lines := []string{
		"**" + g.Title + "**",
		g.Description,
		"",
		"Prize: " + g.Prize,
		fmt.Sprintf("Max Winners: %d | Hosted By: <@%s>", g.WinnerCount, g.CreatedBy),
		fmt.Sprintf("Participants: %d", participants),
		"Ends on " + endDate.Medium,
	}
	if len(g.AllowedRoles) > 0 {
		lines = append(lines, "Allowed Roles: "+mentionRoles(g.AllowedRoles))
	}
	return strings.Join(lines, "\n")
}

func (r *textRenderer) ClosedMessage(g *models.Giveaway, participants int64, endedAt *guildservice.ResolvedTime) string {
	return strings.Join([]string{
		"**" + g.Title + " (Ended)**",
		g.Description,
		"",
		"Prize: " + g.Prize,
		fmt.Sprintf("Participants: %d", participants),
		"Ended on " + endedAt.Medium,
	}, "\n")
}

func (r *textRenderer) ResultMessage(g *models.Giveaway, winners []string, participants int64) string {
	description := "There were not enough participants to draw winners."
	mentions := ""
	if len(winners) > 0 {
		mentions = mentionUsers(winners) + "\n"
		verb := "is"
		if len(winners) > 1 {
			verb = "are"
		}
		description = fmt.Sprintf("The winner of this giveaway %s tagged above! Congratulations 🎉", verb)
	}

	return mentions + strings.Join([]string{
		"**" + g.Title + " (Results)**",
		description,
		"",
		"Prize: " + g.Prize,
		fmt.Sprintf("Participants: %d", participants),
	}, "\n")
}

func (r *textRenderer) RerollMessage(g *models.Giveaway, winners []string, participants int64) string {
	return mentionUsers(winners) + "\n" + strings.Join([]string{
		"**" + g.Title + " (Rerolled)**",
		"The winner of this giveaway has been rerolled! Congratulations 🎉",
		"",
		"Prize: " + g.Prize,
		fmt.Sprintf("Participants: %d", participants),
	}, "\n")
}

func mentionUsers(userIDs []string) string {
	mentions := make([]string, len(userIDs))
	for i, id := range userIDs {
		mentions[i] = "<@" + id + ">"
	}
	return strings.Join(mentions, ", ")
}

func mentionRoles(roleIDs []string) string {
	mentions := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		mentions[i] = "<@&" + id + ">"
	}
	return strings.Join(mentions, ", ")
}
