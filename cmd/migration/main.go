package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logging"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store/mysql"
)

// Usage example on the command line:
// > DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run main.go --file=../../scripts/database.sql
func main() {
	file := pflag.StringP("file", "f", "database.sql", "the sql file to execute")
	seed := pflag.Bool("seed", false, "insert a few example contacts into an empty table")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("could not load configuration")
	}
	logger := logging.New(cfg.Server.LogLevel, cfg.Server.Production)

	ctx := context.Background()
	sqlDB, err := mysql.Open(ctx, cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Name)
	if err != nil {
		logger.WithError(err).Fatal("could not connect to database")
	}
	db := sqlx.NewDb(sqlDB, "mysql")
	defer db.Close()

	readFile, err := os.Open(*file) // nosemgrep
	if err != nil {
		logger.WithError(err).Fatal("could not open sql file")
	}
	defer readFile.Close()

	statements, err := splitStatements(readFile)
	if err != nil {
		logger.WithError(err).Fatal("could not read sql file")
	}
	for i, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			logger.WithError(err).WithField("statement", i+1).Fatal("statement failed")
		}
	}
	logger.WithFields(logrus.Fields{"file": *file, "statements": len(statements)}).Info("migration done")

	if *seed {
		contacts, err := mysql.New(sqlDB)
		if err != nil {
			logger.WithError(err).Fatal("could not prepare statements")
		}
		inserted, err := populate(ctx, contacts)
		if err != nil {
			logger.WithError(err).Fatal("could not insert example contacts")
		}
		logger.WithField("contacts", inserted).Info("seeding done")
	}
}

// initialContacts is the example data inserted with --seed.
var initialContacts = []model.Fields{
	{Avatar: "https://placecats.com/200/200", First: "Dirk", Last: "Krummacker", Twitter: "@dirk"},
	{Avatar: "https://placecats.com/201/200", First: "Pavla", Last: "Krummackerova", Twitter: "@pavla"},
	{Avatar: "https://placecats.com/202/200", First: "Adam", Last: "Krummacker", Twitter: "@adam"},
	{Avatar: "https://placecats.com/203/200", First: "David", Last: "Krummacker", Twitter: "@david"},
}

// populate enters the example contacts. If the table already holds contacts then nothing is
// added.
func populate(ctx context.Context, contacts store.Store) (int, error) {
	existing, err := contacts.FindMany(ctx, nil)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, fields := range initialContacts {
		if _, err := contacts.Insert(ctx, fields); err != nil {
			return 0, err
		}
	}
	return len(initialContacts), nil
}

// splitStatements joins the lines of the file into statements. A statement ends with the
// line that contains a semicolon. Lines starting with "--" are comments.
func splitStatements(file io.Reader) ([]string, error) {
	var statements []string
	fileScanner := bufio.NewScanner(file)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			statements = append(statements, builder.String())
			builder = strings.Builder{}
		}
	}
	return statements, fileScanner.Err()
}
