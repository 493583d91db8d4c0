package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/middleware"
	"github.com/Gandasoft/polylearner-web/routes"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const flowMaxAge = 2 * time.Hour

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local companion API for the presentation layer",
		RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			origins, _ := cmd.Flags().GetStringSlice("allow-origin")
			public, _ := cmd.Flags().GetBool("public")
			return runServer(a, origins, !public)
		}),
	}
	cmd.Flags().StringSlice("allow-origin", nil, "Allowed CORS origins")
	cmd.Flags().Bool("public", false, "Accept requests from non-loopback addresses")
	return cmd
}

func runServer(a *app, origins []string, loopbackOnly bool) error {
	// 设置Gin模式
	if a.conf.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	middleware.SetupMiddleware(r, origins)
	routes.RegisterRoutes(r, routes.Deps{
		Session:      a.session,
		Client:       a.client,
		Loader:       a.loader,
		Flows:        a.flows,
		Location:     a.loc,
		DailyStart:   a.conf.DailyStart,
		DailyEnd:     a.conf.DailyEnd,
		LoopbackOnly: loopbackOnly,
		Now:          time.Now,
	})

	srv := &http.Server{
		Addr:    ":" + a.conf.ServerPort,
		Handler: r,
	}

	// 定期清理被遗弃的引导流程
	pruneCtx, stopPrune := context.WithCancel(context.Background())
	defer stopPrune()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				if n := a.flows.Prune(time.Now().Add(-flowMaxAge)); n > 0 {
					config.Logger.Infow("清理过期引导流程", "count", n)
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		config.Logger.Infow("启动服务器", "port", a.conf.ServerPort, "api", a.conf.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号以实现优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	config.Logger.Infow("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	a.flows.AbandonAll()
	config.Logger.Infow("服务器已关闭")
	return nil
}
