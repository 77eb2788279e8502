package cmd

import (
	"errors"

	"tajeats-api/auth"
	"tajeats-api/config"
	"tajeats-api/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long:  `Administrators cannot register through the API; this command is the only way to create one.`,
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().String("name", "Administrator", "display name")
	createAdminCmd.Flags().String("email", "", "login email (required)")
	createAdminCmd.Flags().String("password", "", "login password (required)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" || password == "" {
		return errors.New("--email and --password are required")
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := config.OpenDB(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	accounts := services.NewAccountService(db, auth.NewBcryptHasher(), tokens, log)
	user, err := accounts.CreateAdmin(cmd.Context(), name, email, password)
	if err != nil {
		return err
	}
	log.Info("Administrator created", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return nil
}
