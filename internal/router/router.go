package router

import (
	"database/sql"
	"net/http"
	"os"

	memblob "petconnect/internal/adapters/blob/memory"
	"petconnect/internal/adapters/geocode/nominatim"
	"petconnect/internal/adapters/location/gateway"
	mem "petconnect/internal/adapters/storage/memory"
	pg "petconnect/internal/adapters/storage/postgres"
	"petconnect/internal/domain/accounts"
	"petconnect/internal/domain/distress"
	"petconnect/internal/domain/mapview"
	"petconnect/internal/domain/pets"
	"petconnect/internal/domain/posts"
	"petconnect/internal/middleware"
	"petconnect/internal/platform/logger"
	"petconnect/internal/ports/auth"
	"petconnect/internal/ports/blob"
	"petconnect/internal/ports/geocode"
	"petconnect/internal/ports/location"

	"petconnect/internal/adapters/auth/jwtauth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier    // puede ser nil (modo dev: X-Debug-User-ID)
	TokenIssuer  accounts.TokenIssuer // nil => jwtauth con JWT_SECRET (o secret de dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Photos   blob.Store        // nil => in-memory
	Geocoder geocode.Geocoder  // nil => nominatim por env GEOCODER_BASE_URL
	Location location.Provider // nil => push gateway en memoria

	Log logger.Logger // nil => nop
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}

	// Auth: con JWT_SECRET seteado se emiten y verifican tokens reales;
	// sin secret queda el modo dev del middleware.
	verifier := opts.AuthVerifier
	issuer := opts.TokenIssuer
	if issuer == nil {
		secret := os.Getenv("JWT_SECRET")
		if secret != "" && verifier == nil {
			verifier = jwtauth.NewVerifier(secret)
		}
		if secret == "" {
			secret = "petconnect-dev-secret" // solo dev; en deploy JWT_SECRET es obligatorio
		}
		issuer = jwtauth.NewIssuer(secret, jwtauth.DefaultTTL)
	}

	r.Use(middleware.AuthContext(verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		usersRepo accounts.Repository
		petsRepo  pets.Repository
		postsRepo posts.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, falling back to in-memory", map[string]any{"err": err.Error()})
			}
		}
	}

	if db != nil {
		usersRepo = pg.NewUsersRepo(db)
		petsRepo = pg.NewPetsRepo(db)
		postsRepo = pg.NewPostsRepo(db)
	} else {
		usersRepo = mem.NewUsersRepo()
		petsRepo = mem.NewPetsRepo()
		postsRepo = mem.NewPostsRepo()
	}

	photos := opts.Photos
	if photos == nil {
		photos = memblob.NewStore()
	}

	geocoder := opts.Geocoder
	if geocoder == nil {
		g, err := nominatim.New(os.Getenv("GEOCODER_BASE_URL"))
		if err != nil {
			// base inválida por env: usar el endpoint público default
			g, _ = nominatim.New("")
		}
		geocoder = g
	}

	provider := opts.Location
	if provider == nil {
		provider = gateway.New()
	}
	// La ingesta del device solo existe cuando el provider es el push gateway.
	if gw, ok := provider.(*gateway.Gateway); ok {
		gateway.RegisterRoutes(r, gw)
	}

	// Services por módulo
	feed := posts.NewFeed()
	accountsSvc := accounts.NewService(usersRepo)
	petsSvc := pets.NewService(petsRepo)
	postsSvc := posts.NewService(postsRepo, feed)
	distressMgr := distress.NewManager(provider, log)

	// Rutas por módulo
	accounts.RegisterRoutes(r, accountsSvc, issuer)
	pets.RegisterRoutes(r, petsSvc, photos)
	posts.RegisterRoutes(r, postsSvc, feed, accountsSvc, petsSvc, log)
	distress.RegisterRoutes(r, distressMgr, log)
	mapview.RegisterRoutes(r, geocoder, provider)

	return r
}
