// Copyright 2025 Zintix Labs
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


package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zintix-labs/wdmlab"
	"github.com/zintix-labs/wdmlab/demo"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/server"
	"github.com/zintix-labs/wdmlab/server/logger"
	"github.com/zintix-labs/wdmlab/server/netsvr"
	"github.com/zintix-labs/wdmlab/server/svrcfg"
)

func main() {
	cfg, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	server.Run(cfg)
}

type config struct {
	LogMode  string
	PoolSize int
	Addr     string
	MaxDraws int
	Timeout  time.Duration
	Limits   wiener.Limits
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, error) {
	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.IntVar(&cfg.PoolSize, "buf", 4, "number of pooled samplers")
	flag.StringVar(&cfg.Addr, "addr", netsvr.DefaultAddr, "listen address")
	flag.IntVar(&cfg.MaxDraws, "max-draws", wdmlab.DefaultMaxDraws, "max draws per request")
	flag.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "per request timeout")
	flag.IntVar(&cfg.Limits.MaxSubintervals, "max-subintervals", demo.ServerLimits.MaxSubintervals, "subinterval limit per draw (0: unlimited)")
	flag.IntVar(&cfg.Limits.MaxTrials, "max-trials", demo.ServerLimits.MaxTrials, "rejection trials limit per subinterval (0: unlimited)")
	flag.IntVar(&cfg.Limits.MaxTerms, "max-terms", demo.ServerLimits.MaxTerms, "series terms limit (0: unlimited)")

	flag.Parse()

	mode, err := logger.ParseLogMode(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	log, _ := logger.NewAsync(4096, mode)

	lab, err := demo.NewLab()
	if err != nil {
		return nil, err
	}
	sCfg := &svrcfg.SvrCfg{
		Log:      log,
		PoolSize: cfg.PoolSize,
		Lab:      lab,
		Limits:   cfg.Limits,
		MaxDraws: cfg.MaxDraws,
		Addr:     cfg.Addr,
		Timeout:  cfg.Timeout,
	}
	return sCfg, nil
}
