// Package alerts - служебные оповещения для администраторов (Discord канал).
package alerts

import (
	"context"
	"fmt"
	"time"

	"seribro_backend/internal/config"

	"github.com/bwmarrin/discordgo"
)

// Alerter отправляет короткое сообщение администраторам
type Alerter interface {
	Alert(ctx context.Context, title, message string) error
}

// NoopAlerter - когда канал не настроен
type NoopAlerter struct{}

func (NoopAlerter) Alert(ctx context.Context, title, message string) error { return nil }

// DiscordAlerter шлет embed в канал через REST API бота; gateway не открывается
type DiscordAlerter struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordAlerter(token, channelID string) (*DiscordAlerter, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("discord token and channel id are required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &DiscordAlerter{session: session, channelID: channelID}, nil
}

func (a *DiscordAlerter) Alert(ctx context.Context, title, message string) error {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: message,
		Color:       0x3B82F6,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord alert: %w", err)
	}
	return nil
}

// New возвращает Discord alerter, если он настроен, иначе no-op
func New(cfg *config.Config) (Alerter, error) {
	if cfg.Alerts.DiscordToken == "" {
		return NoopAlerter{}, nil
	}
	return NewDiscordAlerter(cfg.Alerts.DiscordToken, cfg.Alerts.DiscordChannelID)
}
