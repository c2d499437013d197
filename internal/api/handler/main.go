package handler

import (
	"net/http"

	"safeconnect/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "💰")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.
		routesAPIv1.GET("", Hello)

		u := groupUser{cfg.Container}
		routesAPIv1.GET("/user/me", u.Me)
		routesAPIv1.GET("/user/me/messages", u.Inbox)

		routesAPIv1Wallet := routesAPIv1.Group("/wallet")
		{
			w := groupWallet{cfg.Container}
			routesAPIv1Wallet.GET("", w.Show)
			routesAPIv1Wallet.GET("/ledger", w.Ledger)
			routesAPIv1Wallet.GET("/feed", w.Feed)
			routesAPIv1Wallet.GET("/packages", w.Packages)
			routesAPIv1Wallet.POST("/deposit", w.SubmitDeposit)
			routesAPIv1Wallet.POST("/transfer", w.Transfer)
			routesAPIv1Wallet.POST("/withdrawal", w.Withdraw)
			routesAPIv1Wallet.POST("/subscription", w.BuySubscription)
			routesAPIv1Wallet.POST("/subscription/fiat", w.SubmitSubscription)
		}

		routesAPIv1Ads := routesAPIv1.Group("/ads")
		{
			a := groupAd{cfg.Container}
			routesAPIv1Ads.POST("", a.Create)
			routesAPIv1Ads.GET("", a.List)
			routesAPIv1Ads.GET("/:ad", a.Show)
			routesAPIv1Ads.POST("/:ad/boost", a.Boost)
		}

		routesAPIv1Packs := routesAPIv1.Group("/packs")
		{
			p := groupPack{cfg.Container}
			routesAPIv1Packs.POST("", p.Create)
			routesAPIv1Packs.GET("", p.List)
			routesAPIv1Packs.GET("/:pack", p.Show)
		}

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		{
			ad := groupAdmin{cfg.Container}
			routesAPIv1Admin.GET("/ledger/pending", ad.PendingEntries)
			routesAPIv1Admin.POST("/ledger/:entry/decision", ad.Decide)
		}
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
