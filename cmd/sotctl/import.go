package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/config"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/store"
)

type importer interface {
	Import(ctx context.Context, threads []domain.Thread) error
}

var importCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Load a YAML seed file into the configured sqlite or dynamodb store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threads, err := store.LoadSeedFile(args[0])
		if err != nil {
			return err
		}
		if len(threads) == 0 {
			return fmt.Errorf("no threads found in %s", args[0])
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var dst importer
		switch cfg.Store.Backend {
		case config.StoreSQLite:
			sq, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
			if err != nil {
				return err
			}
			defer sq.Close()
			dst = sq
		case config.StoreDynamoDB:
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Store.AWSRegion))
			if err != nil {
				return err
			}
			dst = store.NewDynamoDBStore(awsdynamodb.NewFromConfig(awsCfg), cfg.Store.TableName, zap.NewNop())
		default:
			return fmt.Errorf("the %s backend reads the seed file directly; set store.backend to sqlite or dynamodb", cfg.Store.Backend)
		}

		if err := dst.Import(ctx, threads); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d thread(s), %d node(s) into %s\n",
			len(threads), store.CountNodes(threads), cfg.Store.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
