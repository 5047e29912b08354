package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"go-inventory-ledger/internal/app"
	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

var commands = []subcommands.Command{
	&createAdminCmd{},
	&resetPasswordCmd{},
	&listUsersCmd{},
	&verifyLedgerCmd{},
}

// openServices loads the same configuration as the API and wires the services over a migrated database.
func openServices() (*app.Services, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.ConnectDB(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if err := database.Migrate(db); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	issuer := jwt.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	return app.NewServices(cfg, db, issuer, nil), closeDB, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

type createAdminCmd struct {
	username string
	password string
}

func (*createAdminCmd) Name() string     { return "create-admin" }
func (*createAdminCmd) Synopsis() string { return "create an ADMIN account" }
func (*createAdminCmd) Usage() string {
	return `inventoryctl create-admin -u <username> -p <password>

  Creates an administrator even when other accounts already exist.
`
}

func (c *createAdminCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Username of the new administrator.")
	f.StringVar(&c.password, "p", "", "Password of the new administrator (at least 6 characters).")
}

func (c *createAdminCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "-u and -p are required")
		return subcommands.ExitUsageError
	}
	svc, closeDB, err := openServices()
	if err != nil {
		return fail(err)
	}
	defer closeDB()

	user, err := svc.Users.CreateUser(ctx, &service.CreateUserRequest{
		Username: c.username,
		Password: c.password,
		Role:     string(model.RoleAdmin),
	}, uuid.Nil)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Created administrator %s (%s)\n", user.Username, user.ID)
	return subcommands.ExitSuccess
}

type resetPasswordCmd struct {
	username string
	password string
}

func (*resetPasswordCmd) Name() string     { return "reset-password" }
func (*resetPasswordCmd) Synopsis() string { return "set a new password for an account" }
func (*resetPasswordCmd) Usage() string {
	return `inventoryctl reset-password -u <username> -p <new password>
`
}

func (c *resetPasswordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Username whose password is reset.")
	f.StringVar(&c.password, "p", "", "New password (at least 6 characters).")
}

func (c *resetPasswordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "-u and -p are required")
		return subcommands.ExitUsageError
	}
	svc, closeDB, err := openServices()
	if err != nil {
		return fail(err)
	}
	defer closeDB()

	if err := svc.Users.ResetPassword(ctx, c.username, c.password); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(fmt.Errorf("user %q not found", c.username))
		}
		return fail(err)
	}
	fmt.Printf("Password for %s has been reset\n", c.username)
	return subcommands.ExitSuccess
}

type listUsersCmd struct{}

func (*listUsersCmd) Name() string     { return "list-users" }
func (*listUsersCmd) Synopsis() string { return "list active accounts" }
func (*listUsersCmd) Usage() string {
	return `inventoryctl list-users
`
}
func (*listUsersCmd) SetFlags(*flag.FlagSet) {}

func (*listUsersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeDB, err := openServices()
	if err != nil {
		return fail(err)
	}
	defer closeDB()

	users, err := svc.Users.GetAllUsers(ctx)
	if err != nil {
		return fail(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type verifyLedgerCmd struct {
	repair bool
}

func (*verifyLedgerCmd) Name() string { return "verify-ledger" }
func (*verifyLedgerCmd) Synopsis() string {
	return "check every item's quantity against the sum of its transactions"
}
func (*verifyLedgerCmd) Usage() string {
	return `inventoryctl verify-ledger [-repair]

  Lists items whose stored quantity or version disagrees with their
  transactions. With -repair the stored values are rewritten from the
  transactions. Exits non-zero when a discrepancy was found and not repaired.
`
}

func (c *verifyLedgerCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.repair, "repair", false, "Rewrite stored quantity and version from the transactions.")
}

func (c *verifyLedgerCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeDB, err := openServices()
	if err != nil {
		return fail(err)
	}
	defer closeDB()

	audit := svc.Reports.LedgerAudit
	if c.repair {
		audit = svc.Reports.RepairLedger
	}
	found, err := audit(ctx)
	if err != nil {
		return fail(err)
	}
	if len(found) == 0 {
		fmt.Println("Ledger is consistent")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tNAME\tSTORED QTY\tLEDGER QTY\tSTORED VERSION\tLEDGER ROWS")
	for _, d := range found {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", d.ItemID, d.Name, d.CachedQuantity, d.LedgerQuantity, d.CachedVersion, d.LedgerCount)
	}
	w.Flush()

	if c.repair {
		fmt.Printf("Repaired %d item(s)\n", len(found))
		return subcommands.ExitSuccess
	}
	return subcommands.ExitFailure
}
