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
	"crypto/rand"
	"flag"
	"io/fs"
	"log"
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zintix-labs/wdmlab"
	"github.com/zintix-labs/wdmlab/corefmt"
	"github.com/zintix-labs/wdmlab/demo/demo_configs"
	"github.com/zintix-labs/wdmlab/errs"
	"github.com/zintix-labs/wdmlab/sdk/core"
	"github.com/zintix-labs/wdmlab/sdk/wiener"
	"github.com/zintix-labs/wdmlab/spec"
	"github.com/zintix-labs/wdmlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 沒有 preset 也沒有給 -n 時的抽樣數
const defaultDraws = 100_000

var cfg *config = new(config)

type config struct {
	params    wiener.Params
	preset    string
	cfgDir    string
	rng       string
	n         int
	worker    int
	seed      int64
	out       string
	quantiles bool
	dump      string
	pprofmode string

	// 階層式設計模式（persons > 0 時啟用）
	persons   int
	trials    int
	criterion string
	predictor string
}

func bindVar() {
	flag.Float64Var(&cfg.params.A, "a", 1, "boundary separation")
	flag.Float64Var(&cfg.params.T0, "t0", 0.2, "non-decision time (seconds)")
	flag.Float64Var(&cfg.params.B, "b", 0.5, "relative starting point in (0,1)")
	flag.Float64Var(&cfg.params.D, "d", 0, "drift rate")
	flag.StringVar(&cfg.preset, "preset", "", "preset id or name (overrides -a -t0 -b -d)")
	flag.StringVar(&cfg.cfgDir, "cfg", "", "extra flat directory of preset yaml/json files")
	flag.StringVar(&cfg.rng, "rng", "pcg64", "prng: pcg64|pcg32")
	flag.IntVar(&cfg.n, "n", 0, "number of draws (0: preset draws or 100000)")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.out, "out", "table", "report format: table|json|yaml")
	flag.BoolVar(&cfg.quantiles, "q", false, "attach |RT| quantiles to the report")
	flag.StringVar(&cfg.dump, "dump", "", "write raw draws (base64 zstd float64) to file")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	flag.IntVar(&cfg.persons, "design", 0, "hierarchical design: number of participants (0: off)")
	flag.IntVar(&cfg.trials, "trials", 40, "hierarchical design: trials per participant")
	flag.StringVar(&cfg.criterion, "criterion", "drift", "hierarchical design: bound|drift|nondt")
	flag.StringVar(&cfg.predictor, "predictor", "ttest", "hierarchical design: ttest|linreg")

	flag.Parse()

	// 未給合法 seed 時以 crypto/rand 產生
	if cfg.seed < 0 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

func executeSimulator() error {
	if err := cfg.valid(); err != nil {
		return err
	}
	cf, err := factory(cfg.rng)
	if err != nil {
		return err
	}
	if cfg.persons > 0 {
		return executeDesign(cf, cfg)
	}
	srcs := []fs.FS{demo_configs.FS}
	if cfg.cfgDir != "" {
		srcs = append(srcs, os.DirFS(cfg.cfgDir))
	}
	lab, err := wdmlab.NewAuto(cf, wdmlab.Configs(srcs...))
	if err != nil {
		return err
	}
	s, n, err := buildSimulator(lab, cfg)
	if err != nil {
		return err
	}

	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	tty := cfg.out == "table"
	if tty {
		prm := s.Params
		p.Printf("%s[PRESET:%s] [a=%g t0=%g b=%g d=%g] [WORKERS:%d] [DRAWS:%d] [SEED:%d]%s\n",
			green, s.Name, prm.A, prm.T0, prm.B, prm.D, cfg.worker, n, s.Seed(), reset)
	}

	var (
		st    *stats.StatReport
		draws []float64
		used  time.Duration
	)
	if cfg.worker == 1 {
		st, draws, used, err = s.Sim(n, tty)
	} else {
		st, draws, used, err = s.SimMP(n, cfg.worker, tty)
	}
	if err != nil {
		return err
	}
	if cfg.quantiles {
		st.AttachQuantiles(draws)
	}
	if cfg.dump != "" {
		if err := dumpDraws(cfg.dump, draws); err != nil {
			return err
		}
	}
	return report(st, used)
}

func (cfg *config) valid() error {
	if cfg.worker < 1 {
		return errs.NewWarn("value err : worker must > 0")
	}
	if cfg.n < 0 {
		return errs.NewWarn("value err : n must >= 0")
	}
	switch cfg.out {
	case "table", "json", "yaml":
	default:
		return errs.NewWarn("value err : out must be table|json|yaml")
	}
	return nil
}

func factory(name string) (core.PRNGFactory, error) {
	switch strings.ToLower(name) {
	case "", "pcg64":
		return core.Default(), nil
	case "pcg32":
		return core.PCG32Factory(), nil
	default:
		return nil, errs.NewWarn("unknown rng: " + name)
	}
}

// buildSimulator 以 -preset（id 或名稱）或 -a -t0 -b -d 建立 Simulator，並決定抽樣數。
func buildSimulator(lab *wdmlab.Lab, c *config) (*wdmlab.Simulator, int, error) {
	n := c.n
	if c.preset == "" {
		if n == 0 {
			n = defaultDraws
		}
		return lab.NewSimulator(c.params, c.seed), n, nil
	}

	var ps *spec.PresetSetting
	var err error
	if id, perr := strconv.ParseUint(c.preset, 10, 0); perr == nil {
		ps, err = lab.PresetByID(spec.PID(id))
	} else {
		ps, err = lab.PresetByName(c.preset)
	}
	if err != nil {
		return nil, 0, errs.Wrap(err, "preset "+c.preset)
	}
	sim, err := lab.NewSimulatorByID(ps.ID, c.seed)
	if err != nil {
		return nil, 0, err
	}
	if n == 0 {
		n = ps.Draws
	}
	if n == 0 {
		n = defaultDraws
	}
	return sim, n, nil
}

func dumpDraws(path string, draws []float64) error {
	s, err := corefmt.EncodeDraws(draws)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return errs.Wrap(err, "dump draws")
	}
	return nil
}
