package smc

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// TblParticles is the name of the sql database table that contains
	// each iteration's accepted particles: parameter positions, the
	// acceptance-time distance, and the importance weight.
	TblParticles = "abcparticles"
	// TblIters is the name of the sql database table that contains one
	// summary row per completed iteration: the selected threshold and the
	// cumulative simulation count.
	TblIters = "abciters"
)

func (s *Sampler) initdb() {
	if s.Db == nil {
		return
	}
	// A fresh run id per Run call lets several runs share one database.
	s.runid = uuid.NewString()

	q := "CREATE TABLE IF NOT EXISTS " + TblParticles + " (run TEXT, iter INTEGER, particle INTEGER, dist REAL, weight REAL"
	q += s.xdbsql("define")
	q += ");"
	_, err := s.Db.Exec(q)
	panicif(err)

	q = "CREATE TABLE IF NOT EXISTS " + TblIters + " (run TEXT, iter INTEGER, eps REAL, nsim INTEGER);"
	_, err = s.Db.Exec(q)
	panicif(err)
}

func (s *Sampler) xdbsql(op string) string {
	q := ""
	for i := 0; i < s.Prob.Nparams; i++ {
		if op == "?" {
			q += ",?"
		} else if op == "define" {
			q += fmt.Sprintf(",x%v REAL", i)
		} else if op == "x" {
			q += fmt.Sprintf(",x%v", i)
		} else {
			panic("invalid db op " + op)
		}
	}
	return q
}

func (s *Sampler) recordIter(iter int, pop *Population, eps float64, nsim int) {
	if s.Db == nil {
		return
	}

	tx, err := s.Db.Begin()
	panicif(err)
	defer tx.Commit()

	q := "INSERT INTO " + TblParticles + " (run,iter,particle,dist,weight" + s.xdbsql("x") + ") VALUES (?,?,?,?,?" + s.xdbsql("?") + ");"
	for i, th := range pop.Params {
		args := []interface{}{s.runid, iter, i, pop.Dists[i], pop.Weights[i]}
		args = append(args, pos2iface(th)...)
		_, err := tx.Exec(q, args...)
		panicif(err)
	}

	q = "INSERT INTO " + TblIters + " (run,iter,eps,nsim) VALUES (?,?,?,?);"
	_, err = tx.Exec(q, s.runid, iter, eps, nsim)
	panicif(err)
}

func pos2iface(pos []float64) []interface{} {
	iface := []interface{}{}
	for _, v := range pos {
		iface = append(iface, v)
	}
	return iface
}

func panicif(err error) {
	if err != nil {
		panic(err.Error())
	}
}
