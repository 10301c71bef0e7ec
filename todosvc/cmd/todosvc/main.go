package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/go-kit/kit/log"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/hashicorp/consul/api"
	"github.com/hisakawa/todolist/todosvc"
	dbgorm "github.com/hisakawa/todolist/todosvc/db/gorm"
	"github.com/hisakawa/todolist/todosvc/inmem"
	"github.com/hisakawa/todolist/todosvc/pkg/authendpoint"
	"github.com/hisakawa/todolist/todosvc/pkg/authservice"
	"github.com/hisakawa/todolist/todosvc/pkg/authtransport"
	"github.com/hisakawa/todolist/todosvc/pkg/token"
	"github.com/hisakawa/todolist/todosvc/pkg/todoendpoint"
	"github.com/hisakawa/todolist/todosvc/pkg/todoservice"
	"github.com/hisakawa/todolist/todosvc/pkg/todotransport"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twinj/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

func main() {
	fs := flag.NewFlagSet("todosvc", flag.ExitOnError)
	var (
		httpAddr = fs.String(
			"http.addr",
			getEnv("HTTP_ADDR", ":8080"),
			"HTTP listen address",
		)
		databaseURL = fs.String(
			"database.url",
			getEnv("DATABASE_URL", ""),
			"Database URL",
		)
		consulAddr = fs.String(
			"consul.addr",
			getEnv("CONSUL_ADDR", ""),
			"Consul agent address",
		)
		blacklistStore = fs.String(
			"blacklist.store",
			getEnv("BLACKLIST_STORE", "db"),
			"Token blacklist store: db or consul",
		)
		jwtSecret      = getEnv("JWT_SECRET", "todo-secret")
		cookieHashKey  = getEnv("COOKIE_HASH_KEY", "very-secret")
		cookieBlockKey = getEnv("COOKIE_BLOCK_KEY", "a-lots-of-secret")
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	var db *libgorm.DB
	var err error
	{
		if *databaseURL != "" {
			db, err = libgorm.Open(postgres.Open(*databaseURL), &libgorm.Config{})
		} else {
			db, err = libgorm.Open(sqlite.Open("gorm.db"), &libgorm.Config{})
		}
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
	}

	db.AutoMigrate(&todosvc.User{}, &todosvc.Todo{}, &todosvc.BlacklistedToken{})

	var (
		userRepository = dbgorm.NewUserRepository(db)
		todoRepository = dbgorm.NewTodoRepository(db)
		blacklist      = dbgorm.NewBlacklistRepository(db)
		registrar      *consulsd.Registrar
	)
	if *consulAddr != "" {
		consulConfig := api.DefaultConfig()
		consulConfig.Address = *consulAddr

		consulClient, err := api.NewClient(consulConfig)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}

		host, port, err := net.SplitHostPort(*httpAddr)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		if host == "" {
			host = "localhost"
		}

		p, _ := strconv.Atoi(port)
		asr := &api.AgentServiceRegistration{
			ID:      uuid.NewV4().String(),
			Name:    "todosvc",
			Address: host,
			Port:    p,
		}

		registrar = consulsd.NewRegistrar(consulsd.NewClient(consulClient), asr, logger)
		registrar.Register()
		defer registrar.Deregister()

		if *blacklistStore == "consul" {
			blacklist = inmem.NewClient(consulClient)
		}
	}

	tokens := token.NewService([]byte(jwtSecret))
	cookies := securecookie.New([]byte(cookieHashKey), []byte(cookieBlockKey))
	authenticator := authtransport.NewAuthenticator(tokens, userRepository, blacklist, logger)

	requestCount := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "todolist",
		Subsystem: "todosvc",
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, []string{"method"})
	requestLatency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: "todolist",
		Subsystem: "todosvc",
		Name:      "request_latency_seconds",
		Help:      "Total duration of requests in seconds.",
	}, []string{"method"})

	var todoSvc todoservice.Service
	{
		todoSvc = todoservice.New(todoRepository, logger)
		todoSvc = todoservice.InstrumentingMiddleware(requestCount, requestLatency)(todoSvc)
	}

	authSvc := authservice.New(userRepository, blacklist, tokens, logger)

	var (
		todoEndpoints = todoendpoint.New(todoSvc, logger)
		authEndpoints = authendpoint.New(authSvc, logger)
	)

	r := mux.NewRouter()
	r.PathPrefix("/user").Handler(authtransport.NewHTTPHandler(authEndpoints, authenticator, cookies, logger))
	r.PathPrefix("/todo").Handler(todotransport.NewHTTPHandler(todoEndpoints, authenticator, logger))
	r.Path("/metrics").Handler(promhttp.Handler())

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			logger.Log("transport", "HTTP", "during", "Listen", "err", err)
			if registrar != nil {
				registrar.Deregister()
			}
			os.Exit(1)
		}
		g.Add(func() error {
			logger.Log("transport", "HTTP", "addr", *httpAddr)
			return http.Serve(httpListener, r)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}
