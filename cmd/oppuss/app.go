package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/oppuss/internal/client"
	"github.com/yukikurage/oppuss/internal/database"
	"github.com/yukikurage/oppuss/internal/dto"
	"github.com/yukikurage/oppuss/internal/imaging"
	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/repository"
	"github.com/yukikurage/oppuss/internal/services"
	"github.com/yukikurage/oppuss/internal/store"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errCredentials = errors.New("--email and --password (or OPPUSS_EMAIL and OPPUSS_PASSWORD) are required")

type options struct {
	dbPath       string
	remote       string
	email        string
	password     string
	logLevel     string
	imageProfile string
}

// backend is what the commands need beyond the stores. Both the local
// service layer and the HTTP client provide it.
type backend interface {
	Signup(ctx context.Context, email, name, password string) (*dto.UserDTO, error)
	Login(ctx context.Context, email, password string) (*dto.UserDTO, error)
	Export(ctx context.Context) (*dto.ExportDocument, error)
	Import(ctx context.Context, payload []byte) (dto.ImportResult, error)
	ClearAll(ctx context.Context) (dto.ImportResult, error)
	UploadPhotos(ctx context.Context, roomID, quality string, files []imaging.File) (*models.Room, error)

	store.HouseGateway
	store.RoomGateway
	store.ShoppingGateway
	store.UserSource
}

type app struct {
	opts    options
	log     *zap.Logger
	backend backend
	stores  *store.Stores
	closeFn func() error
}

// connect opens the backend without signing in.
func (a *app) connect() error {
	if a.backend != nil {
		return nil
	}

	log, err := logging.New(a.opts.logLevel)
	if err != nil {
		return err
	}
	a.log = log

	if a.opts.remote != "" {
		c, err := client.New(a.opts.remote, client.WithLogger(log))
		if err != nil {
			return err
		}
		a.backend = c
		return nil
	}

	db, err := database.Open(sqlite.Open(a.opts.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", a.opts.dbPath, err)
	}
	if err := database.Migrate(db, nil); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	a.closeFn = sqlDB.Close

	profile, err := imaging.ProfileByName(a.opts.imageProfile)
	if err != nil {
		return err
	}
	a.backend = newLocalBackend(db, log, profile)
	return nil
}

// open connects, signs in and loads the stores.
func (a *app) open(ctx context.Context) error {
	if a.stores != nil {
		return nil
	}
	if err := a.connect(); err != nil {
		return err
	}
	if a.opts.email == "" || a.opts.password == "" {
		return errCredentials
	}
	if _, err := a.backend.Login(ctx, a.opts.email, a.opts.password); err != nil {
		return err
	}

	a.stores = store.New(a.backend, a.backend, a.backend, a.backend, store.WithLogger(a.log))
	return a.stores.LoadAll(ctx)
}

func (a *app) close() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.closeFn != nil {
		return a.closeFn()
	}
	return nil
}

// resolve finds the entity whose ID equals ref or starts with it. IDs are
// long, so listings print a short prefix that can be typed back.
func resolve[T any](items []T, id func(T) string, ref, kind string) (T, error) {
	var (
		found T
		n     int
	)
	for _, it := range items {
		switch v := id(it); {
		case v == ref:
			return it, nil
		case strings.HasPrefix(v, ref):
			found = it
			n++
		}
	}

	switch {
	case ref == "" || n == 0:
		return found, fmt.Errorf("%s %q not found", kind, ref)
	case n > 1:
		return found, fmt.Errorf("%s %q is ambiguous", kind, ref)
	}
	return found, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func houseID(h models.House) string       { return h.ID }
func roomID(r models.Room) string         { return r.ID }
func taskID(t models.Task) string         { return t.ID }
func itemID(i models.ShoppingItem) string { return i.ID }

func (a *app) house(ref string) (models.House, error) {
	return resolve(a.stores.Houses.Items(), houseID, ref, "house")
}

func (a *app) room(ref string) (models.Room, error) {
	return resolve(a.stores.Rooms.Items(), roomID, ref, "room")
}

func (a *app) item(ref string) (models.ShoppingItem, error) {
	return resolve(a.stores.Shopping.Items(), itemID, ref, "shopping item")
}

// localBackend runs the service layer in process for the signed-in user.
type localBackend struct {
	*services.HouseService
	*services.RoomService
	*services.ShoppingService

	auth     *services.AuthService
	data     *services.DataService
	pipeline *imaging.Pipeline
	profile  imaging.Profile

	userID string
}

func newLocalBackend(db *gorm.DB, log *zap.Logger, profile imaging.Profile) *localBackend {
	userRepo := repository.NewUserRepository(db)
	houseRepo := repository.NewHouseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	itemRepo := repository.NewShoppingItemRepository(db)

	return &localBackend{
		HouseService:    services.NewHouseService(houseRepo, log),
		RoomService:     services.NewRoomService(roomRepo, houseRepo, log),
		ShoppingService: services.NewShoppingService(itemRepo, log),
		auth:            services.NewAuthService(userRepo, log),
		data:            services.NewDataService(houseRepo, roomRepo, itemRepo, repository.NewDataRepository(db), log),
		pipeline:        imaging.NewPipeline(imaging.WithLogger(log)),
		profile:         profile,
	}
}

func (b *localBackend) CurrentUserID() (string, bool) {
	return b.userID, b.userID != ""
}

func (b *localBackend) Signup(ctx context.Context, email, name, password string) (*dto.UserDTO, error) {
	user, err := b.auth.Signup(ctx, services.SignupInput{Email: email, Name: name, Password: password})
	if err != nil {
		return nil, err
	}
	out := dto.ToUserDTO(*user)
	return &out, nil
}

func (b *localBackend) Login(ctx context.Context, email, password string) (*dto.UserDTO, error) {
	user, err := b.auth.Login(ctx, services.LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	b.userID = user.ID
	out := dto.ToUserDTO(*user)
	return &out, nil
}

func (b *localBackend) Export(ctx context.Context) (*dto.ExportDocument, error) {
	return b.data.Export(ctx, b.userID)
}

func (b *localBackend) Import(ctx context.Context, payload []byte) (dto.ImportResult, error) {
	return b.data.Import(ctx, b.userID, payload), nil
}

func (b *localBackend) ClearAll(ctx context.Context) (dto.ImportResult, error) {
	return b.data.ClearAll(ctx, b.userID), nil
}

// UploadPhotos processes the files in process, then appends them like the
// server's photo endpoint does.
func (b *localBackend) UploadPhotos(ctx context.Context, roomID, quality string, files []imaging.File) (*models.Room, error) {
	profile := b.profile
	if quality != "" {
		p, err := imaging.ProfileByName(quality)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	photos := b.pipeline.ProcessImages(ctx, files, profile)
	return b.RoomService.AppendPhotos(ctx, b.userID, roomID, photos)
}
