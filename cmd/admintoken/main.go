// Command admintoken prints an admin bearer token signed with the configured
// JWT secret, for use against the /api/v1/admin routes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/printshop/personalizer/internal/infrastructure/auth"
	"github.com/printshop/personalizer/internal/infrastructure/config"
	"github.com/printshop/personalizer/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		subject string
		ttl     time.Duration
	)

	flag.StringVar(&subject, "subject", "", "Who the token is issued to, recorded in admin request logs (required)")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime, e.g. 2h (default: jwt.admin_expiration)")
	flag.Parse()

	log, err := logger.New(&logger.Config{Level: "info", Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if subject == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret is empty, set PERSONALIZER_JWT_SECRET")
	}

	issued, err := auth.NewJWTService(cfg.JWT).GenerateAdminToken(subject, ttl)
	if err != nil {
		log.Fatal("Failed to issue admin token", zap.Error(err))
	}

	log.Info("Admin token issued",
		zap.String("subject", subject),
		zap.Time("expires_at", issued.ExpiresAt),
	)
	// stdout carries only the token so it can be captured by scripts
	fmt.Println(issued.Token)
}
