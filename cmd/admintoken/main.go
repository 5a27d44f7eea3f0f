package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Clementine55/Licey22Schedule/config"
	"github.com/Clementine55/Licey22Schedule/pkg/jwt"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		configPath string
		subject    string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admintoken",
		Short: "签发强制刷新接口使用的管理令牌",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("未配置 auth.jwt_secret，管理接口未启用")
			}

			token, expires, err := jwt.NewManager(&cfg.Auth).GenerateAdminToken(subject, ttl)
			if err != nil {
				return fmt.Errorf("签发失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "有效期至 %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认 ./config/config.yaml）")
	cmd.Flags().StringVarP(&subject, "subject", "s", "ops", "令牌持有者标识，写入日志")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "有效期（默认取 auth.admin_token_ttl）")
	return cmd
}
