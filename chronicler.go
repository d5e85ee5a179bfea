// Package chronicler is the short import path for the reporting client.
//
// Example usage:
//
//	client, err := chronicler.New(chronicler.Config{
//	    BaseEndpoint: "https://collector.example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
//	client.Error("payment failed", chronicler.WithUserID("u-42"))
//
// See package github.com/bft-labs/chronicler/pkg/chronicler for the full API.
package chronicler

import (
	"github.com/bft-labs/chronicler/pkg/chronicler"
	"github.com/bft-labs/chronicler/pkg/log"
)

// Config configures a Client.
type Config = chronicler.Config

// Client reports log records to a collector.
type Client = chronicler.Client

// Option configures optional behavior of a Client.
type Option = chronicler.Option

// MessageOption decorates a reported record.
type MessageOption = chronicler.MessageOption

// New creates a Client. See chronicler.New.
func New(cfg Config, opts ...Option) (*Client, error) {
	return chronicler.New(cfg, opts...)
}

// DefaultConfig returns a Config with the stock flush policy.
func DefaultConfig() Config {
	return chronicler.DefaultConfig()
}

// WithUserID attaches a string user id to a record.
func WithUserID(id string) MessageOption {
	return chronicler.WithUserID(id)
}

// WithStack attaches a stack trace to a record.
func WithStack(stack string) MessageOption {
	return chronicler.WithStack(stack)
}

// WithConsoleLogger reports the client's own diagnostics to stderr at
// level through zerolog.
func WithConsoleLogger(level string) (Option, error) {
	logger, err := log.NewConsoleLogger(level)
	if err != nil {
		return nil, err
	}
	return chronicler.WithLogger(logger), nil
}
