package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"github.com/castaneai/potluck/pkg/dicegame"
	"github.com/castaneai/potluck/pkg/gateway"
	"github.com/castaneai/potluck/pkg/roomstore"
	"github.com/castaneai/potluck/pkg/webapi"
)

type config struct {
	Port      string `envconfig:"PORT" default:"3000"`
	RulesFile string `envconfig:"RULES_FILE"`
	StaticDir string `envconfig:"STATIC_DIR" default:"public"`
	// DiceSeed fixes the dice random source, for reproducible demos only.
	DiceSeed int64 `envconfig:"DICE_SEED"`
}

func main() {
	var conf config
	if err := envconfig.Process("", &conf); err != nil {
		log.Fatalf("failed to process config: %+v", err)
	}

	rules := dicegame.DefaultRules()
	if conf.RulesFile != "" {
		var err error
		rules, err = dicegame.LoadRulesFile(conf.RulesFile)
		if err != nil {
			log.Fatalf("failed to load rules: %+v", err)
		}
		log.Printf("loaded rules from %s: %+v", conf.RulesFile, rules)
	}

	seed := conf.DiceSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	dice := dicegame.NewDice(rand.NewSource(seed))
	store := roomstore.NewInMemoryStore()
	codes := roomstore.NewCodeGenerator(store, rand.NewSource(time.Now().UnixNano()))
	engine := dicegame.NewEngine(rules, dice)
	gw := gateway.NewServer(engine, store, codes)

	r := chi.NewRouter()
	r.Handle("/ws", gw.WebSocketHandler())
	r.Mount("/api", webapi.NewServer(store).HTTPHandler())
	r.Handle("/*", http.FileServer(http.Dir(conf.StaticDir)))

	srv := &http.Server{Addr: fmt.Sprintf(":%s", conf.Port), Handler: r}

	eg := &errgroup.Group{}
	eg.Go(func() error {
		log.Printf("potluck server is listening on %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Printf("shutting down...")
		gw.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	if err := eg.Wait(); err != nil {
		log.Fatalf("server error: %+v", err)
	}
}
