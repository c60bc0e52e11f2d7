// Command-line entrypoint: a terminal chat against the same orchestrator the
// HTTP API uses, plus schema migration.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/controllers"
	"mindtrack/mindtrack/services/classifier"
	"mindtrack/mindtrack/services/composer"
	"mindtrack/mindtrack/sources/psql"
	"mindtrack/mindtrack/sources/psql/dao"
	"mindtrack/mindtrack/types"
	"mindtrack/mindtrack/utils/color"
	httputils "mindtrack/mindtrack/utils/http"
	"mindtrack/mindtrack/utils/logging"

	"go.uber.org/zap"
)

func usage() {
	fmt.Println("MindTrack CLI usage:")
	fmt.Println("  mindtrack migrate          # create or update the database schema")
	fmt.Println("  mindtrack chat <user-id>   # chat in the terminal as the given user")
}

var errUsage = errors.New("usage")

func main() {
	cfg := config.LoadConfig()
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, color.Error("logger init failed: "+err.Error()))
		os.Exit(1)
	}
	err := run(cfg, os.Args[1:])
	if errors.Is(err, errUsage) {
		usage()
	} else if err != nil {
		logging.ErrorLogger.Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, color.Error(err.Error()))
	}
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := psql.NewDatabase(ctx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	defer db.Close()

	switch args[0] {
	case "migrate":
		// NewDatabase already migrated
		fmt.Println(color.Info("schema is up to date"))
		return nil
	case "chat":
		if len(args) < 2 {
			return errUsage
		}
		userID, err := strconv.Atoi(args[1])
		if err != nil || userID <= 0 {
			return errors.New("user id must be a positive number")
		}
		return chat(cfg, db, userID)
	default:
		return errUsage
	}
}

func chat(cfg config.Config, db *psql.Database, userID int) error {
	user, err := dao.NewUserDAO(db.DB).GetUserByID(context.Background(), userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d does not exist", userID)
	}

	catalog := composer.DefaultCatalog()
	if cfg.TemplatesFile != "" {
		if catalog, err = composer.LoadCatalog(cfg.TemplatesFile); err != nil {
			return err
		}
	}
	ctrl := controllers.NewChatController(
		dao.NewChatSessionDAO(db.DB),
		dao.NewChatMessageDAO(db.DB),
		classifier.NewClient(cfg.MLAPIURL, cfg.MLTimeout),
		composer.New(catalog, nil),
	)

	fmt.Printf("\nHi %s, MindTrack is listening.\n", user.Name)
	fmt.Println("Type how you feel, '/new' for a fresh session, or 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.Prompt("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			fmt.Println(color.Info("Take care!"))
			return nil
		case "/new":
			session, err := ctrl.CreateSession(context.Background(), userID, "")
			if err != nil {
				fmt.Println(color.Error(httputils.MessageFor(err, "en")))
				continue
			}
			fmt.Println(color.Info("started " + session.Title))
			continue
		}

		res, err := ctrl.SendMessage(context.Background(), userID, types.SendMessageRequest{Message: line})
		if err != nil {
			fmt.Println(color.Error(httputils.MessageFor(err, "en")))
			continue
		}
		if !res.Classification.Succeeded {
			fmt.Println(color.Warning("(classifier unavailable, showing general suggestions)"))
		}
		fmt.Println(color.BotReply("mindtrack> " + res.Reply.Text))
		for _, rec := range res.Reply.Recommendations {
			fmt.Println(color.Recommendation("  - " + rec))
		}
		if res.BotMessage == nil {
			fmt.Println(color.Warning("(this reply could not be saved)"))
		}
	}
	return scanner.Err()
}
