/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package command

import (
	"context"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomoncle/bedrock/database"
	"github.com/tomoncle/bedrock/sweeper"
	"github.com/urfave/cli/v2"
)

const paramWatch = "watch"

func sweepCommand(registry *database.Registry) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Delete expired rows of the registered models",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  paramWatch,
				Usage: "Keep running on the configured schedule until interrupted",
			},
		},
		Action: func(ctx *cli.Context) error {
			factory, conf, err := connect(ctx, registry)
			if err != nil {
				return err
			}
			defer closeFactory(factory)

			s := sweeper.New(
				sweeper.WithSchedule(conf.Sweeper.Schedule),
				sweeper.WithTimeout(conf.Sweeper.Timeout),
			)
			for _, job := range sweeper.RegistryJobs(factory.GetDB(), registry) {
				if err := s.Add(job); err != nil {
					return errors.WithStack(err)
				}
			}

			if !ctx.Bool(paramWatch) {
				counts, err := s.RunOnce(ctx.Context)
				names := make([]string, 0, len(counts))
				for name := range counts {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					printf(ctx, "%s\t%d\n", name, counts[name])
				}
				return errors.WithStack(err)
			}

			runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if conf.Metrics.Enabled {
				srv := &http.Server{Addr: conf.Metrics.Addr, Handler: metricsMux(conf.Metrics.Path)}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Errorf("metrics server: %v", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			s.Start()
			<-runCtx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), conf.Sweeper.Timeout+time.Second)
			defer cancel()
			return errors.WithStack(s.Stop(stopCtx))
		},
	}
}

func metricsMux(path string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	return mux
}
