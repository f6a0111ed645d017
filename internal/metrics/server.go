// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics serves the Prometheus endpoint on its own listener,
// separate from the API port.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type MetricsServer struct {
	host string
	port int
}

func NewMetricsServer(host string, port int) *MetricsServer {
	return &MetricsServer{
		host: host,
		port: port,
	}
}

func (s *MetricsServer) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("Starting metrics server")
	return server.ListenAndServe()
}
