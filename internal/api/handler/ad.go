package handler

import (
	"errors"
	"strconv"

	"safeconnect/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAd struct {
	container *do.Injector
}

func (gr *groupAd) Create(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Invalid))
	}

	serviceAd, err := do.Invoke[*services.ServiceAd](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ad, err := serviceAd.CreateAd(ctx, user, payload.Title)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, ad, nil)
}

func (gr *groupAd) List(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceAd, err := do.Invoke[*services.ServiceAd](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ads, err := serviceAd.ListOwnAds(ctx, user)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, ads, nil)
}

func (gr *groupAd) Show(c echo.Context) error {
	ctx := c.Request().Context()

	adID, err := strconv.ParseInt(c.Param("ad"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid ad id"), errorx.Invalid))
	}

	serviceAd, err := do.Invoke[*services.ServiceAd](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ad, err := serviceAd.GetAd(ctx, adID)
	return httpx.RestAbort(c, ad, err)
}

func (gr *groupAd) Boost(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	adID, err := strconv.ParseInt(c.Param("ad"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid ad id"), errorx.Invalid))
	}

	serviceBoost, err := do.Invoke[*services.ServiceBoost](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	result, err := serviceBoost.BoostAd(ctx, user, adID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"new_balance":            result.Account.Balance,
		"bonus_boosts_remaining": result.Account.BonusBoosts,
		"used_bonus":             result.UsedBonus,
		"boosted_until":          result.Ad.BoostedUntil,
	}, nil)
}
