package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/someoneigna/gitkit"
	"github.com/someoneigna/gitkit/engine"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	port := flag.Int("port", 9418, "TCP port to listen on")
	baseDir := flag.String("baseDir", "", "Repository directory (in-memory if empty)")
	gitURL := flag.String("gitUrl", "", "Git URL to clone when the directory is empty")
	jwtSecret := flag.String("jwtSecret", "", "Shared secret for JWT authentication (disabled if empty)")
	issuer := flag.String("issuer", "", "Expected JWT issuer claim")
	audience := flag.String("audience", "", "Expected JWT audience claim")
	devLog := flag.Bool("devLog", false, "Human-readable log output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gitkitd v%s\n", Version)
		return
	}

	var logger *zap.Logger
	var err error
	if *devLog {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var eng *engine.GitEngine
	if *baseDir == "" {
		logger.Info("using in-memory repository")
		eng, err = engine.NewMemoryEngine()
	} else {
		logger.Info("using repository directory", zap.String("baseDir", *baseDir))
		var gitURLPtr *string
		if *gitURL != "" {
			gitURLPtr = gitURL
		}
		eng, err = engine.NewFileEngine(*baseDir, gitURLPtr)
	}
	if err != nil {
		logger.Fatal("failed to open repository", zap.Error(err))
	}

	identity := engine.Identity{
		Name:  "gitkitd",
		Email: "gitkitd@localhost",
	}

	var authConfig *AuthConfig
	if *jwtSecret != "" {
		authConfig = &AuthConfig{
			Enabled:   true,
			JWTSecret: *jwtSecret,
			Issuer:    *issuer,
			Audience:  *audience,
		}
	}

	server := NewServer(gitkit.Open(eng), identity, authConfig, logger)
	addr := fmt.Sprintf(":%d", *port)

	if err := server.Start(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	server.Stop()
	logger.Info("server stopped")
}
