// Code scaffolded by goctl. Safe to edit.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/apierr"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/config"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/handler"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/svc"
)

var configFile = flag.String("f", "etc/authbroker.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)

	httpx.SetErrorHandlerCtx(func(_ context.Context, err error) (int, interface{}) {
		if apiErr, ok := apierr.As(err); ok {
			return apierr.HTTPStatus(apiErr.Kind), map[string]string{
				"kind":    string(apiErr.Kind),
				"message": apiErr.Message,
			}
		}
		return 400, map[string]string{"kind": "ValidationError", "message": err.Error()}
	})

	server := rest.MustNewServer(c.RestConf, rest.WithCors(c.CORS.AllowedOrigins...))
	defer server.Stop()

	ctx := svc.NewServiceContext(c)
	handler.RegisterHandlers(server, ctx)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go ctx.Sweeper.Run(sweepCtx)

	logx.Infof("authbroker: starting at %s:%d", c.Host, c.Port)
	fmt.Printf("Starting server at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
