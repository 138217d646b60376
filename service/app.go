package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"blogsync/app/auth"
	"blogsync/app/config"
	"blogsync/app/remote"
	"blogsync/app/repositories"
	"blogsync/app/session"

	"github.com/golang/glog"
)

// app wires one command invocation to the store and the signed-in session.
type app struct {
	cfg      config.Config
	store    *remote.BadgerStore
	provider *auth.LocalProvider
	state    *session.State
	posts    *repositories.RemotePostRepository
	comments *repositories.RemoteCommentRepository
	unwatch  func()
}

func openApp(cfg config.Config) (*app, error) {
	store, err := remote.OpenBadger(cfg.DBPath, cfg.InMemory)
	if err != nil {
		return nil, err
	}

	provider := auth.NewLocalProvider(store, []byte(cfg.TokenSecret), cfg.TokenTTL)
	if token, err := os.ReadFile(cfg.TokenFile); err == nil {
		if _, err := provider.Resume(strings.TrimSpace(string(token))); err != nil {
			glog.V(1).Infof("[service] discarding saved session: %v", err)
			os.Remove(cfg.TokenFile)
		}
	}

	a := &app{
		cfg:      cfg,
		store:    store,
		provider: provider,
		state:    session.NewState(provider),
	}
	a.posts = repositories.NewPostRepository(store, a.state, cfg.RetryPolicy())
	a.comments = repositories.NewCommentRepository(store, a.state, cfg.RetryPolicy())
	a.unwatch = a.state.Watch(a.saveSession)
	return a, nil
}

// saveSession keeps the token file in step with the session.
func (a *app) saveSession(s session.Session) {
	if !s.Authenticated() {
		if err := os.Remove(a.cfg.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			glog.Errorf("[service] failed to remove session token: %v", err)
		}
		return
	}
	if err := writeToken(a.cfg.TokenFile, a.provider.Token()); err != nil {
		glog.Errorf("[service] failed to save session token: %v", err)
	}
}

func writeToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	return os.WriteFile(path, []byte(token+"\n"), 0600)
}

func (a *app) Close() {
	a.unwatch()
	a.state.Close()
	if err := a.store.Close(); err != nil {
		glog.Errorf("[service] failed to close store: %v", err)
	}
}
