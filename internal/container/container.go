// Package container wires the crondeck services using go.uber.org/dig.
package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/dig"

	"github.com/crystaldolphin/crondeck/internal/config"
	"github.com/crystaldolphin/crondeck/internal/cron"
	"github.com/crystaldolphin/crondeck/internal/i18n"
	"github.com/crystaldolphin/crondeck/internal/interfaces"
	"github.com/crystaldolphin/crondeck/internal/jobstore"
	"github.com/crystaldolphin/crondeck/internal/schema"
	"github.com/crystaldolphin/crondeck/internal/shared/cmdutils"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg        *config.Config
	catalog    *i18n.Catalog
	loc        *time.Location
	codec      *cron.Codec
	describer  *cron.Describer
	formatter  *cron.Formatter
	store      *jobstore.FileStore
	terminal   *cmdutils.Terminal
	controller *cron.Controller
}

func (c *Container) Config() *config.Config       { return c.cfg }
func (c *Container) Catalog() *i18n.Catalog       { return c.catalog }
func (c *Container) Location() *time.Location     { return c.loc }
func (c *Container) Codec() *cron.Codec           { return c.codec }
func (c *Container) Describer() *cron.Describer   { return c.describer }
func (c *Container) Formatter() *cron.Formatter   { return c.formatter }
func (c *Container) Store() *jobstore.FileStore   { return c.store }
func (c *Container) Terminal() *cmdutils.Terminal { return c.terminal }
func (c *Container) Controller() *cron.Controller { return c.controller }

// streams are the console's input and output.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// New builds and wires all services from cfg on the standard streams.
func New(cfg *config.Config) (*Container, error) {
	return NewWithIO(cfg, os.Stdin, os.Stdout, os.Stderr)
}

// NewWithIO builds and wires all services from cfg on the given streams.
func NewWithIO(cfg *config.Config, in io.Reader, out, errOut io.Writer) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		func() streams { return streams{in: in, out: out, errOut: errOut} },
		newCatalog,
		func(c *i18n.Catalog) i18n.Translator { return c },
		newLocation,
		cron.NewCodec,
		cron.NewFormatter,
		cron.NewDescriber,
		newTerminal,
		func(t *cmdutils.Terminal) cron.Notifier { return t },
		func(t *cmdutils.Terminal) cron.Confirmer { return t },
		newFileStore,
		func(s *jobstore.FileStore) interfaces.CronStore { return s },
		cron.NewController,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		catalog *i18n.Catalog,
		loc *time.Location,
		codec *cron.Codec,
		describer *cron.Describer,
		formatter *cron.Formatter,
		store *jobstore.FileStore,
		terminal *cmdutils.Terminal,
		controller *cron.Controller,
	) {
		result = &Container{
			cfg:        cfg,
			catalog:    catalog,
			loc:        loc,
			codec:      codec,
			describer:  describer,
			formatter:  formatter,
			store:      store,
			terminal:   terminal,
			controller: controller,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("wire services: %w", err)
	}
	return result, nil
}

func newCatalog(cfg *config.Config) (*i18n.Catalog, error) {
	return i18n.Load(cfg.Locale)
}

func newLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Location()
}

func newTerminal(t i18n.Translator, s streams) *cmdutils.Terminal {
	return cmdutils.NewTerminalIO(t, s.in, s.out, s.errOut)
}

// newFileStore opens the jobs file. A manual run prints the job's message on
// the console, which is the only delivery target crondeck has.
func newFileStore(cfg *config.Config, loc *time.Location, s streams) *jobstore.FileStore {
	store := jobstore.NewFileStore(cfg.StoreFile(), loc)
	store.SetOnRun(func(_ context.Context, job schema.Job) error {
		cmdutils.PrintResponse(s.out, job.Name, job.Payload.Message)
		return nil
	})
	return store
}
