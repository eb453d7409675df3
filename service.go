// Copyright 2026 Simbig
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sentrymux

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceConfig ties together everything needed to run an instrumented HTTP
// service: the Sentry client, logging, metrics and the router middleware. It
// is the composition root for applications that want the full wiring rather
// than assembling the middleware themselves.
type ServiceConfig struct {
	Name                 string
	Version              string
	GitSHA               string
	Address              string
	Port                 uint16
	ReadTimeout          int
	WriteTimeout         int
	UseDevelopmentLogger bool
	CancelSignals        []os.Signal
	Registry             prometheus.Registerer
	Sentry               Config
}

// NewDefaultServiceConfig returns a standard configuration given a service
// name. It is recommended to invoke this function for a ServiceConfig before
// providing further customization.
func NewDefaultServiceConfig(name string) ServiceConfig {
	return ServiceConfig{
		Name:          name,
		Address:       "127.0.0.1",
		Port:          8080,
		ReadTimeout:   5,
		WriteTimeout:  60,
		CancelSignals: []os.Signal{os.Interrupt},
	}
}

// RegisterFlags registers service flags with pflags
func (sc *ServiceConfig) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&sc.Address, "address", sc.Address, "Address for the server to listen on")
	flags.Uint16VarP(&sc.Port, "port", "p", sc.Port, "Port for the server to listen on")
	flags.IntVar(&sc.ReadTimeout, "read-timeout", sc.ReadTimeout, "HTTP read timeout in seconds")
	flags.IntVar(&sc.WriteTimeout, "write-timeout", sc.WriteTimeout, "HTTP write timeout in seconds")
	flags.BoolVar(&sc.UseDevelopmentLogger, "use-development-logger", sc.UseDevelopmentLogger, "Use the console-friendly development logger")
	sc.Sentry.RegisterFlags(flags)
}

// ServerCmd creates and returns a Cobra command preconfigured to run an HTTP
// server with Sentry, logging and metrics wired in. registerHandlers is
// called with the router so the application can attach its routes; named mux
// routes become Sentry transaction names.
func (sc ServiceConfig) ServerCmd(shortDescript, longDescript string, registerHandlers func(*mux.Router)) *cobra.Command {
	cmd := &cobra.Command{
		Use:              sc.Name,
		Short:            shortDescript,
		Long:             longDescript,
		Version:          fmt.Sprintf("%s (%s)", sc.Version, sc.GitSHA),
		PersistentPreRun: bindEnvironment(strings.ReplaceAll(sc.Name, "-", "_")),
		RunE: func(_ *cobra.Command, _ []string) error {
			sc.Sentry.AppVersion = sc.Version
			if err := sc.Sentry.InitializeSentry(); err != nil {
				return err
			}
			logger, err := sc.newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return sc.run(logger, registerHandlers)
		},
	}
	sc.RegisterFlags(cmd.Flags())
	return cmd
}

// bindEnvironment lets every flag be set from a PREFIX_-style environment
// variable; explicit CLI arguments take precedence. Skewered flag names are
// translated to underscored environment variable names.
func bindEnvironment(prefix string) func(cmd *cobra.Command, _ []string) {
	viper.SetEnvPrefix(prefix)
	viper.AutomaticEnv()
	return func(cmd *cobra.Command, _ []string) {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				return
			}
			underscoredName := strings.ReplaceAll(f.Name, "-", "_")
			if viper.IsSet(underscoredName) {
				_ = cmd.Flags().Set(f.Name, viper.GetString(underscoredName))
			}
		})
	}
}

// newLogger builds the service logger with the Sentry core teed in so error
// logs become Sentry events.
func (sc ServiceConfig) newLogger() (*zap.Logger, error) {
	var logger *zap.Logger
	var err error
	if sc.UseDevelopmentLogger {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction(zap.Fields(
			zap.String("version", sc.Version),
			zap.String("git_sha", sc.GitSHA),
		))
	}
	if err != nil {
		return nil, fmt.Errorf("error initializing logger - %w", err)
	}
	if sc.Sentry.Enabled {
		logger = logger.WithOptions(zap.WrapCore(func(existingCore zapcore.Core) zapcore.Core {
			return zapcore.NewTee(existingCore, &Core{LevelEnabler: zapcore.ErrorLevel})
		}))
	}
	return logger, nil
}

// run starts the web server and blocks until a cancellation signal arrives,
// then shuts down gracefully and flushes Sentry.
func (sc ServiceConfig) run(logger *zap.Logger, registerHandlers func(*mux.Router)) error {
	middleware := NewMiddleware()
	middleware.Logger = logger
	middleware.Reporter = NewReporter(NewMetrics(sc.Registry, true))
	middleware.FlushTimeout = sc.Sentry.FlushTimeout

	router := mux.NewRouter()
	router.Use(handlers.CompressHandler)
	router.Use(middleware.HTTP)
	router.HandleFunc("/health", healthHandler).Name("health")
	router.Handle("/metrics", promhttp.Handler()).Name("metrics")
	if registerHandlers != nil {
		registerHandlers(router)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", sc.Address, sc.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(sc.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(sc.WriteTimeout) * time.Second,
	}

	serverErrs := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			serverErrs <- err
			return
		}
		serverErrs <- nil
	}()

	cancelSignals := sc.CancelSignals
	if len(cancelSignals) == 0 {
		cancelSignals = []os.Signal{os.Interrupt}
	}
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, cancelSignals...)
	select {
	case err := <-serverErrs:
		return err
	case sig := <-signals:
		logger.Info("received signal, shutting down http server", zap.String("signal", sig.String()))
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil {
		logger.Error("error waiting to shutdown http server", zap.Error(err))
	}
	sentry.Flush(middleware.flushTimeout())
	return <-serverErrs
}

// healthHandler reports that the server is up and accepting requests.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}
