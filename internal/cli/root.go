// Package cli is the flint terminal client.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"flint/internal/client"
	"flint/internal/conversation"
	"flint/internal/database"
)

const (
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type options struct {
	apiURL    string
	store     string
	storePath string
	redisURL  string
	verbose   bool
}

// NewRootCmd builds the flint command tree. Flag defaults come from the
// environment (and .env when present).
func NewRootCmd() *cobra.Command {
	godotenv.Load()

	opts := &options{}

	root := &cobra.Command{
		Use:   "flint",
		Short: "Turn a product idea into a PRD, one question at a time",
		Long: `flint walks you through product-requirement questions and, once it has
enough, writes a PRD you can export.

Quick Start:
  flint chat              # start or resume the conversation
  flint export            # save the finished PRD to PRD.txt
  flint clear             # start over`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetOutput(cmd.ErrOrStderr())
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", getEnvOrDefault("FLINT_API_URL", client.DefaultBaseURL), "Base URL of the flint proxy API")
	flags.StringVar(&opts.store, "store", getEnvOrDefault("FLINT_STORE", StoreBolt), "History store: bolt, redis or memory")
	flags.StringVar(&opts.storePath, "store-path", getEnvOrDefault("FLINT_STORE_PATH", defaultStorePath()), "Path of the bolt history database")
	flags.StringVar(&opts.redisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis URL for the redis store")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newChatCmd(opts),
		newExportCmd(opts),
		newClearCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session is an open conversation plus whatever backs its store.
type session struct {
	*conversation.Conversation
	closeStore func() error
}

func (s *session) Close() {
	s.Conversation.Close()
	if s.closeStore != nil {
		if err := s.closeStore(); err != nil {
			log.Printf("Failed to close history store: %v", err)
		}
	}
}

func (o *options) open(ctx context.Context) (*session, error) {
	store, closeStore, err := o.openStore()
	if err != nil {
		return nil, err
	}

	conv, err := conversation.Open(ctx, client.New(o.apiURL), store)
	if err != nil {
		if closeStore != nil {
			closeStore()
		}
		return nil, err
	}
	return &session{Conversation: conv, closeStore: closeStore}, nil
}

func (o *options) openStore() (conversation.Store, func() error, error) {
	switch strings.ToLower(o.store) {
	case StoreBolt, "":
		s, err := conversation.OpenBoltStore(o.storePath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using bolt history store at %s", o.storePath)
		return s, s.Close, nil
	case StoreRedis:
		if o.redisURL == "" {
			return nil, nil, fmt.Errorf("--redis-url (or REDIS_URL) is required for the redis store")
		}
		rdb, err := database.NewRedisClient(o.redisURL)
		if err != nil {
			return nil, nil, err
		}
		s := conversation.NewRedisStore(rdb)
		log.Println("Using redis history store")
		return s, s.Close, nil
	case StoreMemory:
		return conversation.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (supported: bolt, redis, memory)", o.store)
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".flint", "history.db")
	}
	return filepath.Join(home, ".flint", "history.db")
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
