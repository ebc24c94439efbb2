/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/authgate/apiserver/config"
	"github.com/authgate/apiserver/internal/logging"
	"github.com/authgate/apiserver/internal/mq"
	"github.com/authgate/apiserver/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// eventsCmd groups commands that work with account events.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect account events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log user registration events as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return fmt.Errorf("MQ_BACKEND is %q; set rabbitmq or pubsub", cfg.MQ.Backend)
		}
		defer broker.Close()

		log.WithField("channel", cfg.MQ.EventsChannel).Info("waiting for registrations")
		events := mq.NewUserEvents(broker, cfg.MQ.EventsChannel)
		err = events.SubscribeUserRegistered(ctx, func(ctx context.Context, event types.UserRegisteredEvent) error {
			log.WithFields(logrus.Fields{
				"user_id":       event.UserID,
				"username":      event.Username,
				"email":         event.Email,
				"registered_at": event.RegisteredAt,
			}).Info("user registered")
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
