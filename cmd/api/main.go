package main

import (
	"context"
	"os"

	"carta/internal/db"
	"carta/internal/imagehost"
	"carta/internal/menu"
	"carta/internal/router"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	required := []string{
		"DATABASE_URL",
		"IMAGEHOST_ENDPOINT",
		"IMAGEHOST_ACCESS_KEY",
		"IMAGEHOST_SECRET_KEY",
		"IMAGEHOST_BUCKET",
		"IMAGEHOST_PUBLIC_BASE_URL",
	}
	for _, k := range required {
		if os.Getenv(k) == "" {
			log.Fatal().Str("var", k).Msg("variable de entorno faltante")
		}
	}

	ctx := context.Background()

	// ───────────────────────── IMAGE HOST ─────────────────────────
	images, err := imagehost.New(ctx, imagehost.Config{
		Endpoint:  os.Getenv("IMAGEHOST_ENDPOINT"),
		AccessKey: os.Getenv("IMAGEHOST_ACCESS_KEY"),
		SecretKey: os.Getenv("IMAGEHOST_SECRET_KEY"),
		Bucket:    os.Getenv("IMAGEHOST_BUCKET"),
		BaseURL:   os.Getenv("IMAGEHOST_PUBLIC_BASE_URL"),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo inicializar el host de imágenes")
	}

	// ───────────────────────── DB + SERVICE ─────────────────────────
	// When the store cannot be reached the API starts anyway and the
	// /menu routes answer 503 until the next restart.
	var menuHandler *menu.Handler
	pool, err := db.Connect(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Error().Err(err).Msg("base de datos no disponible, iniciando en modo degradado")
		menuHandler = menu.NewHandler(nil)
	} else {
		defer pool.Close()
		repo := menu.NewPostgresRepository(pool)
		service := menu.NewService(repo, images, log)
		menuHandler = menu.NewHandler(service)
		log.Info().Msg("conectado a PostgreSQL")
	}

	// ───────────────────────── HTTP ─────────────────────────
	r := router.New(menuHandler, pool, log)

	host := os.Getenv("API_HOST")
	if host == "" {
		host = "0.0.0.0"
	}
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "5000"
	}

	log.Info().Str("host", host).Str("port", port).Msg("iniciando API de restaurante")
	if err := r.Run(host + ":" + port); err != nil {
		log.Fatal().Err(err).Msg("el servidor terminó con error")
	}
}
