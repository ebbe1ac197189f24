package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/TildeSecDev/Yuck/internal/account"
	"github.com/TildeSecDev/Yuck/internal/admin"
	"github.com/TildeSecDev/Yuck/internal/config"
	"github.com/TildeSecDev/Yuck/internal/database"
	"github.com/TildeSecDev/Yuck/internal/handler"
	"github.com/TildeSecDev/Yuck/internal/invite"
	"github.com/TildeSecDev/Yuck/internal/logger"
	"github.com/TildeSecDev/Yuck/internal/metrics"
	"github.com/TildeSecDev/Yuck/internal/middleware"
	"github.com/TildeSecDev/Yuck/internal/ratelimit"
	"github.com/TildeSecDev/Yuck/internal/repository"
	"github.com/TildeSecDev/Yuck/internal/token"
	"github.com/TildeSecDev/Yuck/internal/worker/cleanup"
)

// cleanupInterval はクリーンアップジョブの実行間隔。
const cleanupInterval = 24 * time.Hour

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "4242"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// クリーンアップジョブも同一プロセス内の日次ティッカーで実行する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	accountRepo := repository.NewPostgresAccountRepo(db)
	signupRepo := repository.NewPostgresSignupRepo(db)
	inviteRepo := repository.NewPostgresInviteRepo(db)
	adminSessionRepo := repository.NewPostgresAdminSessionRepo(db)

	// 3. ドメインサービスの初期化
	accountService := account.NewService(accountRepo)

	adminService := admin.NewService(
		admin.Credentials{User: cfg.AdminUser, Pass: cfg.AdminPass},
		adminSessionRepo,
		admin.ServiceConfig{SessionMaxAge: cfg.AdminSessionMaxAge},
	)

	codec := token.NewCodec(cfg.SessionSecret, cfg.TokenTTL)
	authenticator := middleware.NewAuthenticator(codec, accountService, cfg.CookieSecure)

	issuer := invite.NewIssuer(inviteRepo, cfg.DBTimeout)

	// 4. レート制限の初期化
	// サインアップ専用のスライディングウィンドウはREDIS_ADDRの有無でバックエンドを切り替える
	var signupLimiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		signupLimiter = ratelimit.NewRedis(client, cfg.SignupRateWindow, cfg.SignupRateMax)
		slog.Info("using redis signup rate limiter", slog.String("addr", cfg.RedisAddr))
	} else {
		signupLimiter = ratelimit.NewMemory(cfg.SignupRateWindow, cfg.SignupRateMax)
	}

	generalLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:            rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		Burst:           cfg.RateLimitGeneral,
		CleanupInterval: 5 * time.Minute,
	})
	defer generalLimiter.Stop()

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Authenticator:      authenticator,
		AdminSessionFinder: adminSessionRepo,
		RateLimiter:        generalLimiter,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		Logger:             slog.Default(),

		AccountService: accountService,
		TokenCodec:     codec,

		SignupRepo:    signupRepo,
		SignupLimiter: signupLimiter,

		AdminService: adminService,
		InviteRepo:   inviteRepo,
		CookieSecure: cfg.CookieSecure,

		InviteIssuer:  issuer,
		WebhookSecret: cfg.StripeWebhookSecret,

		Metrics:  collector,
		Gatherer: registry,
		DB:       db,
	})

	// 7. クリーンアップジョブをバックグラウンドで日次実行
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupJob := cleanup.NewCleanupJob(adminSessionRepo, signupRepo, slog.Default())
	go cleanupJob.Start(ctx, cleanupInterval)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
