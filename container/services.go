package container

import (
	"context"
	"fmt"
	"time"

	"github.com/stevelaver/developer-portal-sub000/assets"
	"github.com/stevelaver/developer-portal-sub000/backend"
	"github.com/stevelaver/developer-portal-sub000/internal/identity"
	"github.com/stevelaver/developer-portal-sub000/internal/objectstore"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/accessctl"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/appsvc"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/iconsvc"
	"github.com/stevelaver/developer-portal-sub000/internal/svc/vendorsvc"
	"github.com/stevelaver/developer-portal-sub000/pkg/cache"
	"github.com/stevelaver/developer-portal-sub000/pkg/mailclient"
	"github.com/stevelaver/developer-portal-sub000/pkg/uid"
	"github.com/stevelaver/developer-portal-sub000/pkg/worker"
	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/multierr"
)

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultCacheBytes   = 32 * 1024 * 1024
	defaultUploadExpiry = 15 * time.Minute
)

type Services interface {
	Identity() identity.Provider
	App() appsvc.Service
	Vendor() vendorsvc.Service
	Icon() iconsvc.Service
}

type ServicesImpl struct {
	identity identity.Provider
	app      appsvc.Service
	vendor   vendorsvc.Service
	icon     iconsvc.Service
	closer   closers
}

var _ Services = (*ServicesImpl)(nil)

// SetupServices stitch repositories and collaborators into the business services.
// Close must be called to drain pending notifications.
func SetupServices(ctx context.Context, cfg Config, repos Repositories) (svc *ServicesImpl, err error) {
	if repos == nil {
		err = fmt.Errorf("nil repositories on services preparation")
		return
	}

	svc = &ServicesImpl{}
	defer func() {
		if err != nil {
			err = multierr.Append(err, svc.Close())
			svc = nil
		}
	}()

	// ** version store, cached when configured
	appRepo, err := repos.AppRepo(cfg.Services.App.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get app repo: %w", err)
		return
	}

	appCache, err := setupCache(cfg.Services.App.Cache, repos)
	if err != nil {
		err = fmt.Errorf("services cannot prepare app cache: %w", err)
		return
	}

	if cfg.Services.App.Cache.Type != "" && cfg.Services.App.Cache.Type != "none" {
		appRepo, err = apprepo.NewCached(apprepo.CachedConfig{
			Persistent:     appRepo,
			CacheExpiry:    orDuration(cfg.Services.App.Cache.TTL, defaultCacheTTL),
			CachePrefixKey: "apps",
			Cache:          appCache,
		})
		if err != nil {
			err = fmt.Errorf("services cannot prepare cached app repo: %w", err)
			return
		}
	}

	vendorRepo, err := repos.VendorRepo(vendorDBLabel(cfg.Services))
	if err != nil {
		err = fmt.Errorf("services cannot get vendor repo: %w", err)
		return
	}

	invitationRepo, err := repos.InvitationRepo(vendorDBLabel(cfg.Services))
	if err != nil {
		err = fmt.Errorf("services cannot get invitation repo: %w", err)
		return
	}

	access, err := accessctl.New(accessctl.Config{Apps: &appsvc.OwnerFinder{Repo: appRepo}})
	if err != nil {
		return
	}

	// ** collaborators
	svc.identity, err = setupIdentity(cfg.Identity, repos)
	if err != nil {
		err = fmt.Errorf("services cannot prepare identity provider: %w", err)
		return
	}

	notifier, err := svc.setupNotifier(cfg.Notifier)
	if err != nil {
		err = fmt.Errorf("services cannot prepare notifier: %w", err)
		return
	}

	store, err := setupObjectStore(ctx, cfg.ObjectStorage)
	if err != nil {
		err = fmt.Errorf("services cannot prepare object storage: %w", err)
		return
	}

	// ** business services
	svc.app, err = appsvc.New(appsvc.DefaultServiceConfig{
		AppRepo:     appRepo,
		VendorRepo:  vendorRepo,
		Access:      access,
		Notifier:    notifier,
		AdminEmails: cfg.Notifier.AdminEmails,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare app service: %w", err)
		return
	}

	svc.vendor, err = vendorsvc.New(vendorsvc.DefaultServiceConfig{
		VendorRepo:     vendorRepo,
		InvitationRepo: invitationRepo,
		Access:         access,
		Members:        svc.identity,
		Notifier:       notifier,
		AdminEmails:    cfg.Notifier.AdminEmails,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare vendor service: %w", err)
		return
	}

	svc.icon, err = iconsvc.New(iconsvc.Config{
		AppRepo:      appRepo,
		Access:       access,
		Store:        store,
		Prefix:       cfg.ObjectStorage.Prefix,
		UploadExpiry: orDuration(cfg.ObjectStorage.UploadURLExpiry, defaultUploadExpiry),
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare icon service: %w", err)
		return
	}

	return svc, nil
}

func (s *ServicesImpl) Identity() identity.Provider {
	return s.identity
}

func (s *ServicesImpl) App() appsvc.Service {
	return s.app
}

func (s *ServicesImpl) Vendor() vendorsvc.Service {
	return s.vendor
}

func (s *ServicesImpl) Icon() iconsvc.Service {
	return s.icon
}

// Close release collaborators in reverse order of creation.
func (s *ServicesImpl) Close() error {
	if s == nil {
		return nil
	}

	return s.closer.Close()
}

func (s *ServicesImpl) setupNotifier(cfg ConfigNotifier) (backend.Notifier, error) {
	var sender backend.Sender
	switch cfg.Type {
	case "smtp":
		mailer, err := mailclient.NewSMTP(mailclient.SMTPConfig{
			Credential: mailclient.Credential{
				Host:            cfg.SMTP.ServerHost,
				Port:            cfg.SMTP.ServerPort,
				Identity:        cfg.SMTP.AuthIdentity,
				Username:        cfg.SMTP.Username,
				Password:        cfg.SMTP.Password,
				DisableStartTLS: cfg.SMTP.DisableStartTLS,
			},
		})
		if err != nil {
			return nil, err
		}

		s.closer.add("smtp", mailer)
		sender, err = backend.NewSmtpSender(backend.SmtpSenderConfig{
			Client:     mailer,
			SenderAddr: cfg.Sender,
		})
		if err != nil {
			return nil, err
		}

	case "noop", "":
		sender = backend.NewNoopSender()

	default:
		return nil, fmt.Errorf("unknown notifier type %s", cfg.Type)
	}

	uidGen, err := uid.NewSonyflake(cfg.MachineID)
	if err != nil {
		return nil, err
	}

	pool := worker.NewWorker(cfg.MaxWorker, cfg.MaxQueue)
	s.closer.addFunc("notification worker", func() error {
		pool.Done()
		return nil
	})

	return backend.NewDispatcher(backend.DispatcherConfig{
		Sender: sender,
		Worker: pool,
		UIDGen: uidGen,
	})
}

func setupIdentity(cfg ConfigIdentity, repos Repositories) (identity.Provider, error) {
	switch cfg.Type {
	case "http":
		c, err := setupCache(cfg.Cache, repos)
		if err != nil {
			return nil, err
		}

		return identity.NewHTTP(identity.HTTPConfig{
			BaseURL:      cfg.URL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Cache:        c,
			CacheTTL:     cfg.Cache.TTL,
			Timeout:      cfg.Timeout,
		})

	case "static":
		users := make(map[string]accessctl.Caller, len(cfg.Static))
		for token, u := range cfg.Static {
			users[token] = accessctl.Caller{
				Email:   u.Email,
				Name:    u.Name,
				Vendors: u.Vendors,
				IsAdmin: u.IsAdmin,
			}
		}

		return identity.NewStatic(users), nil

	default:
		return nil, fmt.Errorf("unknown identity type %q", cfg.Type)
	}
}

func setupObjectStore(ctx context.Context, cfg ConfigObjectStorage) (objectstore.Store, error) {
	switch cfg.Type {
	case "firebase":
		return objectstore.NewFirebase(ctx, objectstore.FirebaseConfig{
			CredentialsFile: cfg.CredentialsFile,
			Bucket:          cfg.Bucket,
			GoogleAccessID:  cfg.GoogleAccessID,
			PrivateKeyFile:  cfg.PrivateKeyFile,
		})

	case "noop", "":
		ylog.Info(ctx, "object storage: noop, icons are not stored", ylog.KV("bucket", cfg.Bucket))
		return objectstore.NewNoop(cfg.Bucket), nil

	default:
		return nil, fmt.Errorf("unknown object storage type %q", cfg.Type)
	}
}

func setupCache(cfg ConfigCache, repos Repositories) (cache.Cache, error) {
	switch cfg.Type {
	case "none", "":
		return cache.NewNoop(), nil

	case "inmemory":
		maxBytes := cfg.MaxBytes
		if maxBytes <= 0 {
			maxBytes = defaultCacheBytes
		}

		return cache.NewInMemory(maxBytes)

	case "redis":
		client, err := repos.Redis(cfg.RedisLabel)
		if err != nil {
			return nil, err
		}

		return cache.NewRedis(cache.RedisConfig{Client: client, Namespace: assets.ServiceName})

	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

func vendorDBLabel(cfg ConfigServices) string {
	if cfg.Vendor.DBLabel != "" {
		return cfg.Vendor.DBLabel
	}

	return cfg.App.DBLabel
}

func orDuration(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}

	return d
}
