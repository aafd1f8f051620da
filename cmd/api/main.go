package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/config"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/router"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/task"
	taskrepo "github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/task/repo"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/database"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	logCfg, err := utilities.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger config: %v\n", err)
		os.Exit(1)
	}
	lg, err := utilities.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-task-go-stdlib")

	cfg, err := config.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}
	idCfg, err := utilities.IDConfigFromEnv()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}

	// init db
	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("db config: %v", err)
	}
	db, err := database.Connect(dbCfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db, dbCfg.Driver); err != nil {
		sugar.Fatalf("db migrate: %v", err)
	}
	sugar.Infow("database ready", "driver", dbCfg.Driver)

	signer, err := auth.NewSigner([]byte(cfg.JWTSecret))
	if err != nil {
		sugar.Fatalf("token signer: %v", err)
	}

	userSvc := user.NewUserService(userrepo.NewUserRepo(db), user.BcryptHasher{Cost: cfg.BcryptCost}, signer)
	userSvc.AccessTTL = cfg.AccessTokenTTL
	userSvc.RefreshTTL = cfg.RefreshTokenTTL

	ids := utilities.NewIDGenerator(idCfg.SnowflakeNode)
	taskSvc := task.NewService(taskrepo.NewTaskRepo(db), ids.Next)

	handler := router.RegisterRoutes(sugar, router.Options{
		Users:       userSvc,
		Tasks:       taskSvc,
		Guard:       auth.NewGuard(signer, sugar),
		CORSOrigins: cfg.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
