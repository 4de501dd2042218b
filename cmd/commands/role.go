package commands

import (
	"context"
	"fmt"
	"teamchat/backend/internal/config"
	"teamchat/backend/internal/models"
	"teamchat/backend/internal/storage"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var roles = []string{models.RoleOwner, models.RoleAdmin, models.RoleMember}

// roleCmd groups the role administration commands
var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Grant channel and workspace roles",
	Long: `role writes a membership row with the given role straight to the database.

This is how the first owner of a channel or workspace is created; after that,
owners and admins manage members through the API. When Redis is configured,
running hubs are told about new members so their live connections join at once.`,
}

var roleChannelCmd = &cobra.Command{
	Use:   "channel <channel-id> <user-id> <owner|admin|member>",
	Short: "Set a user's role in a channel",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(models.ScopeChannel, args[0], args[1], args[2])
	},
}

var roleWorkspaceCmd = &cobra.Command{
	Use:   "workspace <workspace-id> <user-id> <owner|admin|member>",
	Short: "Set a user's role in a workspace",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(models.ScopeWorkspace, args[0], args[1], args[2])
	},
}

func init() {
	RootCmd.AddCommand(roleCmd)
	roleCmd.AddCommand(roleChannelCmd, roleWorkspaceCmd)
}

func setRole(scope models.MembershipScope, targetID, userID, role string) error {
	if !lo.Contains(roles, role) {
		return errors.Errorf("unknown role %q, want one of %v", role, roles)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := openDatabase(viper.GetString("database.dsn"))
	if err != nil {
		return err
	}
	var redisCfg config.RedisConfig
	if err := viper.UnmarshalKey("redis", &redisCfg); err != nil {
		return errors.Wrap(err, "decode redis config")
	}
	rdb, err := openRedis(ctx, redisCfg)
	if err != nil {
		log.WithError(err).Warn("Running hubs will not be notified")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store := storage.NewStorageService(db, rdb)
	if scope == models.ScopeChannel {
		err = store.SetChannelRole(ctx, targetID, userID, role)
	} else {
		err = store.SetWorkspaceRole(ctx, targetID, userID, role)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s of %s %s.\n", userID, role, scope, targetID)

	if rdb != nil {
		change := models.MembershipChange{Scope: scope, TargetID: targetID, UserIDs: []string{userID}, Added: true}
		if err := store.PublishMembershipChange(ctx, change); err != nil {
			log.WithError(err).Warn("Running hubs were not notified")
		}
	}
	return nil
}
