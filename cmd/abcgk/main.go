// Command abcgk runs adaptive ABC-SMC inference on the g-and-k quantile
// distribution benchmark and prints the resulting posterior mean next to
// the true parameters.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"github.com/rwcarlsen/abc"
	"github.com/rwcarlsen/abc/bench"
	"github.com/rwcarlsen/abc/metric"
	"github.com/rwcarlsen/abc/smc"
)

type Config struct {
	N        int     `yaml:"n"`
	Alpha    float64 `yaml:"alpha"`
	MaxSim   int     `yaml:"maxsim"`
	InitSims int     `yaml:"initsims"`
	Metric   string  `yaml:"metric"`
	P        float64 `yaml:"p"`
	Adaptive bool    `yaml:"adaptive"`
	Diag     bool    `yaml:"diag"`
	Workers  int     `yaml:"workers"`
	Ndraw    int     `yaml:"ndraw"`
}

var defaultConfig = Config{
	N:        500,
	Alpha:    0.5,
	MaxSim:   200000,
	InitSims: 10000,
	Metric:   "weightedeuclidean",
	P:        2,
	Adaptive: true,
	Workers:  1,
	Ndraw:    1000,
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("abcgk: ")

	conffile := flag.String("config", "", "yaml config file (built-in defaults if empty)")
	dbpath := flag.String("db", "", "sqlite file to record iterations into")
	out := flag.String("out", "", "write the full run result as json to this file")
	seed := flag.Uint64("seed", 1, "random seed")
	silent := flag.Bool("silent", false, "suppress per-iteration progress")
	flag.Parse()

	conf := defaultConfig
	if *conffile != "" {
		data, err := os.ReadFile(*conffile)
		if err != nil {
			log.Fatal(err)
		}
		if err := yaml.Unmarshal(data, &conf); err != nil {
			log.Fatal(err)
		}
	}

	abc.Seed(*seed)
	model := bench.NewGK(conf.Ndraw, *seed)
	prob := model.Problem()

	kind, err := metric.KindByName(conf.Metric)
	if err != nil {
		log.Fatal(err)
	}
	m := metric.New(kind, prob.Obs)
	if kind == metric.Lp {
		m = metric.NewLp(conf.P, prob.Obs)
	}

	opts := []smc.Option{
		smc.Alpha(conf.Alpha),
		smc.InitSims(conf.InitSims),
		smc.Metric(m),
		smc.Workers(conf.Workers),
	}
	if conf.Adaptive {
		opts = append(opts, smc.Adaptive())
	}
	if conf.Diag {
		opts = append(opts, smc.DiagKernel())
	}
	if *silent {
		opts = append(opts, smc.Silent())
	}
	if *dbpath != "" {
		db, err := sql.Open("sqlite3", *dbpath)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		opts = append(opts, smc.DB(db))
	}

	s, err := smc.New(prob, conf.N, conf.MaxSim, opts...)
	if err != nil {
		log.Fatal(err)
	}
	res := s.Run()
	if res.Niter() == 0 {
		log.Fatal("budget exhausted before any iteration completed")
	}

	fmt.Printf("completed %v iterations with %v simulations\n", res.Niter(), res.Nsims[res.Niter()-1])
	fmt.Printf("    true params:    %v\n", model.True())
	fmt.Printf("    posterior mean: %v\n", res.PosteriorMean())
	fmt.Printf("    final eps:      %v\n", res.Eps[res.Niter()-1])

	if *out != "" {
		data, err := json.Marshal(res)
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*out, data, 0644); err != nil {
			log.Fatal(err)
		}
	}
}
