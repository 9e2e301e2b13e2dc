package main

import (
	"context"
	"errors"
	"io"

	"github.com/loykin/clawpanel"
	"github.com/loykin/clawpanel/pkg/client"
)

// ops is what the lifecycle subcommands need. It is served either by an
// in-process Panel or by a remote `clawpanel serve`.
type ops interface {
	Status(ctx context.Context, detailed bool) (any, error)
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
	Restart(ctx context.Context) (string, error)
	Logs(ctx context.Context, n int) ([]string, error)
	KillAll(ctx context.Context) (string, error)
	Skills(ctx context.Context) (any, error)
	InstallSkill(ctx context.Context, name string) (string, error)
	UninstallSkill(ctx context.Context, id string) (string, error)
	Overview(ctx context.Context) (any, error)
	History(ctx context.Context, limit int) (any, error)
	SystemInfo(ctx context.Context) (any, error)
	Close() error
}

var errLocalOnly = errors.New("this command only runs locally; drop --api-url")

type localOps struct {
	p   *clawpanel.Panel
	log io.Closer
}

func (l localOps) Status(ctx context.Context, detailed bool) (any, error) {
	if detailed {
		return l.p.StatusDetails(ctx), nil
	}
	return l.p.Status(ctx), nil
}

func (l localOps) Start(ctx context.Context) (string, error)   { return l.p.Start(ctx) }
func (l localOps) Stop(ctx context.Context) (string, error)    { return l.p.Stop(ctx) }
func (l localOps) Restart(ctx context.Context) (string, error) { return l.p.Restart(ctx) }
func (l localOps) Logs(ctx context.Context, n int) ([]string, error) {
	return l.p.Logs(ctx, n)
}
func (l localOps) KillAll(ctx context.Context) (string, error) { return l.p.KillAllOnPort(ctx) }
func (l localOps) Skills(context.Context) (any, error)         { return l.p.Skills() }
func (l localOps) InstallSkill(ctx context.Context, name string) (string, error) {
	return l.p.InstallSkill(ctx, name)
}
func (l localOps) UninstallSkill(_ context.Context, id string) (string, error) {
	return l.p.UninstallSkill(id)
}
func (l localOps) Overview(context.Context) (any, error) { return l.p.OpenClawOverview() }
func (l localOps) History(ctx context.Context, limit int) (any, error) {
	return l.p.History(ctx, limit)
}
func (l localOps) SystemInfo(ctx context.Context) (any, error) { return l.p.SystemInfo(ctx), nil }
func (l localOps) Close() error {
	err := l.p.Close()
	if l.log != nil {
		_ = l.log.Close()
	}
	return err
}

type remoteOps struct {
	c *client.Client
}

func (r remoteOps) Status(ctx context.Context, detailed bool) (any, error) {
	if detailed {
		return r.c.StatusDetails(ctx)
	}
	return r.c.Status(ctx)
}

func (r remoteOps) Start(ctx context.Context) (string, error)   { return r.c.Start(ctx) }
func (r remoteOps) Stop(ctx context.Context) (string, error)    { return r.c.Stop(ctx) }
func (r remoteOps) Restart(ctx context.Context) (string, error) { return r.c.Restart(ctx) }
func (r remoteOps) Logs(ctx context.Context, n int) ([]string, error) {
	return r.c.Logs(ctx, n)
}
func (r remoteOps) KillAll(ctx context.Context) (string, error) {
	msg, _, err := r.c.KillAll(ctx)
	return msg, err
}
func (r remoteOps) Skills(ctx context.Context) (any, error) { return r.c.Skills(ctx) }
func (r remoteOps) InstallSkill(ctx context.Context, name string) (string, error) {
	return r.c.InstallSkill(ctx, name)
}
func (r remoteOps) UninstallSkill(ctx context.Context, id string) (string, error) {
	return r.c.UninstallSkill(ctx, id)
}
func (r remoteOps) Overview(ctx context.Context) (any, error) { return r.c.OpenClawOverview(ctx) }
func (r remoteOps) History(ctx context.Context, limit int) (any, error) {
	return r.c.History(ctx, limit)
}
func (r remoteOps) SystemInfo(ctx context.Context) (any, error) { return r.c.SystemInfo(ctx) }
func (r remoteOps) Close() error                                { return nil }
