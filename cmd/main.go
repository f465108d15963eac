package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"nexitera-web/internal/config"
	"nexitera-web/internal/constants"
	"nexitera-web/internal/gateway"
	appCoreLogger "nexitera-web/internal/logger"
	"nexitera-web/internal/session"
	"nexitera-web/internal/tracing"
	"nexitera-web/internal/web/handler"
	"nexitera-web/internal/web/router"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	initLogger()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	if level, err := zerolog.ParseLevel(cfg.Logger.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 追踪按配置开启；未开启时不产生任何导出流量
	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.Init(ctx, tracing.Options{
			ServiceName:  constants.ServiceName,
			Endpoint:     cfg.Tracing.Endpoint,
			SamplingRate: cfg.Tracing.SamplingRate,
		})
		if err != nil {
			glog.Fatalf("初始化追踪失败: %v", err)
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdownTracing(shutdownCtx); err != nil {
				glog.Warnf("追踪关闭失败: %v", err)
			}
		}()
		glog.Info("追踪初始化成功")
	}

	redisClient, err := session.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		glog.Fatalf("初始化Redis失败: %v", err)
	}
	defer redisClient.Close()
	glog.Info("Redis连接成功")

	gw := gateway.NewClient(cfg.Backend.BaseURL, &http.Client{Timeout: cfg.BackendTimeout()})
	glog.Infof("后端API网关初始化成功: %s", cfg.Backend.BaseURL)

	sessionStore := session.NewRedisStore(redisClient, cfg.SessionTTL())
	sessions := session.NewManager(sessionStore, gw)

	sessionMW := handler.NewSessionMiddleware(sessions, cfg.Session.CookieName, cfg.SessionTTL(), cfg.Session.CookieSecure)
	deps := router.Deps{
		Session:        sessionMW,
		Auth:           handler.NewAuthHandler(gw, sessions, sessionMW),
		Vacancies:      handler.NewVacancyHandler(gw, sessions),
		Applications:   handler.NewApplicationHandler(gw, sessions),
		Internal:       handler.NewInternalHandler(sessions, version),
		InternalAPIKey: cfg.Internal.APIKey,
	}

	serverOpts := []hertzconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	}
	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracer, tCfg := hertztracing.NewServerTracer()
		serverOpts = append(serverOpts, tracer)
		tracerCfg = tCfg
	}

	h := server.New(serverOpts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}

	h.SetFuncMap(handler.TemplateFuncMap())
	h.LoadHTMLGlob("internal/web/templates/*.tmpl")
	h.StaticFile("/static/app.css", "internal/web/static/app.css")

	router.RegisterRoutes(h, deps)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger() {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	output := zerolog.MultiLevelWriter(consoleWriter)
	if fileWriter, err := os.OpenFile("logs/app.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		output = zerolog.MultiLevelWriter(consoleWriter, fileWriter)
	} else {
		log.Printf("无法打开日志文件 logs/app.log: %v, 仅输出到控制台", err)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(output).With().Timestamp().Caller().Logger()

	appCoreLogger.Logger = logger
	zlog.Logger = logger

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.SetLevel(glog.LevelInfo)
}
