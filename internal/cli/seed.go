package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/service"
)

// seed 写入一组演示数据：两个用户、一篇文章和一条带回复的评论。
func newSeedCommand(withRepo repoRunner) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo users, an article and a comment thread",
		Args:  cobra.NoArgs,
		RunE: withRepo(func(cmd *cobra.Command, repo *repository.Repository, args []string) error {
			ctx := cmd.Context()
			users := service.NewUserService(repo, service.NewSessionService(repo))
			articles := service.NewArticleService(repo)
			comments := service.NewCommentService(repo)

			writer, err := users.Signup(ctx, "writer@oatext.local", password, "writer")
			if err != nil {
				return errors.Wrap(err, "seed writer")
			}
			reader, err := users.Signup(ctx, "reader@oatext.local", password, "reader")
			if err != nil {
				return errors.Wrap(err, "seed reader")
			}

			article, err := articles.Upload(ctx, model.ArticleFields{
				Author:   writer,
				Title:    "Hello OAText",
				Summary:  "A first chapter",
				Content:  "# Hello\n\nThis is the first chapter.",
				Previous: model.NoChapter,
				Tags:     []string{"demo"},
			})
			if err != nil {
				return errors.Wrap(err, "seed article")
			}

			top, err := comments.AddComment(ctx, article.ID, model.Path{article.ID}, reader, "Nice start!")
			if err != nil {
				return errors.Wrap(err, "seed comment")
			}
			reply, err := comments.AddComment(ctx, article.ID, top.Path, writer, "Thanks for reading.")
			if err != nil {
				return errors.Wrap(err, "seed reply")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "users %d,%d article %d comment %v reply %v\n", writer, reader, article.ID, top.Path, reply.Path)
			return nil
		}),
	}
	cmd.Flags().StringVar(&password, "password", "oatext", "password for the demo accounts")
	return cmd
}
