package handler

import (
	"errors"

	"safeconnect/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupPack struct {
	container *do.Injector
}

func (gr *groupPack) Create(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload struct {
		Title string   `json:"title"`
		URLs  []string `json:"urls"`
		Price int      `json:"price"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid payload"), errorx.Invalid))
	}

	service, err := do.Invoke[*services.ServiceContentPack](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	pack, err := service.CreatePack(ctx, user, payload.Title, payload.URLs, payload.Price)
	return httpx.RestAbort(c, pack, err)
}

// Show is public within the API: buyers inspect a pack before paying for it.
func (gr *groupPack) Show(c echo.Context) error {
	ctx := c.Request().Context()

	service, err := do.Invoke[*services.ServiceContentPack](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	pack, err := service.FindPack(ctx, c.Param("pack"))
	return httpx.RestAbort(c, pack, err)
}

func (gr *groupPack) List(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	service, err := do.Invoke[*services.ServiceContentPack](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	packs, err := service.ListOwnPacks(ctx, user)
	return httpx.RestAbort(c, packs, err)
}
