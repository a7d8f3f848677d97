// ABOUTME: Command table and handlers for the chat surface
// ABOUTME: Each handler maps one command onto the wizard or a content API call

package bot

import (
	"context"

	"github.com/2389/quill/internal/articles"
)

func (d *Dispatcher) commandTable() []*Command {
	return []*Command{
		{
			Name:        "/start",
			Usage:       "/start",
			Description: "show the welcome message",
			Args:        -1,
			Handler:     d.cmdStart,
		},
		{
			Name:        "/help",
			Usage:       "/help",
			Description: "show this help",
			Args:        -1,
			Handler:     d.cmdHelp,
		},
		{
			Name:        "/new_article",
			Usage:       "/new_article",
			Description: "create a new article",
			Args:        -1,
			Handler:     d.cmdNewArticle,
		},
		{
			Name:        "/list_articles",
			Usage:       "/list_articles",
			Description: "list all articles",
			Args:        -1,
			Handler:     d.cmdListArticles,
		},
		{
			Name:        "/list_drafts",
			Usage:       "/list_drafts",
			Description: "list drafts",
			Args:        -1,
			Handler:     d.cmdListDrafts,
		},
		{
			Name:        "/show",
			Usage:       "/show <id>",
			Description: "show one article",
			Args:        1,
			Handler:     d.cmdShow,
		},
		{
			Name:        "/publish",
			Usage:       "/publish <id>",
			Description: "publish an article",
			Args:        1,
			Handler:     d.cmdPublish,
		},
	}
}

func (d *Dispatcher) cmdStart(_ context.Context, _ Request) (string, error) {
	return renderWelcome(d.commands), nil
}

func (d *Dispatcher) cmdHelp(_ context.Context, _ Request) (string, error) {
	return renderHelp(d.commands), nil
}

func (d *Dispatcher) cmdNewArticle(ctx context.Context, req Request) (string, error) {
	return d.wizard.Start(ctx, req.UserID)
}

func (d *Dispatcher) cmdListArticles(ctx context.Context, _ Request) (string, error) {
	res := d.api.ListArticles(ctx, "")
	if !res.OK() {
		return renderListFailure(res.Failure), nil
	}
	return renderArticleList(res, d.listLimit), nil
}

func (d *Dispatcher) cmdListDrafts(ctx context.Context, _ Request) (string, error) {
	res := d.api.ListArticles(ctx, articles.StatusDraft)
	if !res.OK() {
		return renderListFailure(res.Failure), nil
	}
	return renderDraftList(res.Articles), nil
}

func (d *Dispatcher) cmdShow(ctx context.Context, req Request) (string, error) {
	res := d.api.GetArticle(ctx, req.Args[0])
	if !res.OK() {
		return renderFailure(res.Failure), nil
	}
	return renderArticle(res.Article), nil
}

func (d *Dispatcher) cmdPublish(ctx context.Context, req Request) (string, error) {
	id := req.Args[0]
	res := d.api.PublishArticle(ctx, id)
	if !res.OK() {
		return renderFailure(res.Failure), nil
	}
	return renderPublished(id), nil
}
