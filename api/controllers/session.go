package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/auth"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type sessionReader interface {
	Current() auth.Snapshot
}

type signInService interface {
	SignIn(ctx context.Context, req auth.LoginRequest) (auth.Snapshot, error)
	SignOut(ctx context.Context) auth.Snapshot
}

func SessionFetch(session sessionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}
		responses.WriteSuccess(w, session.Current())
	}
}

// SessionLogin signs in against the auth backend. Form problems and rejected
// credentials both surface as client errors.
func SessionLogin(svc signInService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		var payload auth.LoginRequest
		if err := validators.DecodeJSON(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := svc.SignIn(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

func SessionLogout(svc signInService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.SignOut(r.Context()))
	}
}
