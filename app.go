package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gandasoft/polylearner-web/config"
	"github.com/Gandasoft/polylearner-web/services"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
)

// app 进程内的依赖图，每个进程只有一个 Session
type app struct {
	conf     config.Config
	loc      *time.Location
	session  *services.Session
	client   *services.APIClient
	loader   *services.Loader
	flows    *services.FlowRegistry
	redis    *redis.Client
	restored error
}

func newApp(cmd *cobra.Command) (*app, error) {
	dir, _ := cmd.Flags().GetString("config")

	// 加载配置
	conf, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("无法加载配置: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	// 初始化日志
	if err := config.InitLogger(conf.LogDir, conf.LogLevel); err != nil {
		return nil, fmt.Errorf("无法初始化日志: %w", err)
	}

	loc, _ := conf.Location()
	a := &app{conf: conf, loc: loc}

	var store services.TokenStore
	switch conf.TokenStore {
	case config.TokenStoreRedis:
		// 初始化Redis
		a.redis, err = config.InitRedis(cmd.Context(), conf)
		if err != nil {
			return nil, err
		}
		store = services.NewRedisTokenStore(a.redis, conf.TokenKey)
	default:
		store = services.NewFileTokenStore(conf.TokenFile)
	}

	hc := &http.Client{Timeout: conf.HTTPTimeout()}
	a.session = services.NewSession(conf.APIURL, hc, store)
	a.client = services.NewAPIClient(conf.APIURL, hc, a.session)
	a.client.OnUnauthorized = a.session.HandleUnauthorized
	a.loader = services.NewLoader(a.client)
	a.flows = services.NewFlowRegistry(a.client)

	// 启动时恢复会话，失效只记录，由具体命令决定是否要求登录
	a.restored = a.session.Restore(cmd.Context())
	if a.restored != nil {
		config.Logger.Warnw("恢复会话失败", "error", a.restored)
	}
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	config.Logger.Sync()
}

// requireSession 未登录时给出可读的提示
func (a *app) requireSession() error {
	if a.session.IsAuthenticated() {
		return nil
	}
	if a.restored != nil && !errors.Is(a.restored, services.ErrSessionExpired) {
		return a.restored
	}
	return errors.New("not signed in, run `polylearner login` first")
}

// withApp 为子命令创建依赖图，authed 为 true 时要求已登录
func withApp(authed bool, run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		if authed {
			if err := a.requireSession(); err != nil {
				return err
			}
		}
		return run(cmd.Context(), a, cmd, args)
	}
}
