// import_assets carga una planilla de recepción (xlsx o csv) como activos HOLDING
// usando la misma validación que POST /api/assets/intake.
//
// Uso: go run ./cmd/import_assets --actor ops@empresa.co [--latin1] [--dry-run] ruta/activos.xlsx
// Lee la conexión a PostgreSQL de las mismas variables que la API (DB_HOST, DATABASE_URL, ...).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/application/intake"
	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/internal/infrastructure/broker"
	"github.com/jhoicas/Activos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Activos-api/internal/infrastructure/spreadsheet"
	"github.com/jhoicas/Activos-api/pkg/config"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

func main() {
	actor := pflag.String("actor", "", "usuario responsable de la importación (requerido)")
	latin1 := pflag.Bool("latin1", false, "el csv está en ISO-8859-1")
	dryRun := pflag.Bool("dry-run", false, "solo parsea y muestra las filas, sin escribir")
	pflag.Parse()

	if pflag.NArg() != 1 || (*actor == "" && !*dryRun) {
		fmt.Fprintln(os.Stderr, "uso: import_assets --actor <usuario> [--latin1] [--dry-run] <archivo.xlsx|archivo.csv>")
		os.Exit(2)
	}
	path := pflag.Arg(0)

	rows, err := readRows(path, *latin1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer %s: %v\n", path, err)
		os.Exit(1)
	}
	if *dryRun {
		printJSON(rows)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	var publisher intake.EventPublisher = lifecycle.NopPublisher{}
	if cfg.Broker.URL != "" {
		rp, err := broker.NewRabbitPublisher(cfg.Broker.URL, cfg.Broker.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rp.Close()
		publisher = rp
	}

	uc := intake.NewUseCase(intake.Deps{
		TxRunner:          postgres.NewTxRunner(pool),
		Locations:         postgres.NewLocationRepository(pool),
		Publisher:         publisher,
		Logger:            log,
		DefaultLocationID: cfg.Intake.LocationID,
	})
	report, err := uc.Intake(ctx, *actor, rows)
	if report != nil {
		printJSON(dto.NewIntakeResponse(report))
	}
	if err != nil {
		log.Error().Err(err).Msg("importación incompleta")
		os.Exit(1)
	}
	if len(report.Rejected) > 0 {
		os.Exit(3)
	}
}

func readRows(path string, latin1 bool) ([]intake.RowRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return spreadsheet.ParseCSV(f, spreadsheet.CSVOptions{Latin1: latin1})
	}
	return spreadsheet.Parse(f)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
