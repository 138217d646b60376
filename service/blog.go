package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blogsync/app/apperr"
	"blogsync/app/models"
	"blogsync/app/services"

	"github.com/docopt/docopt-go"
)

const dateLayout = "2006-01-02 15:04"

func signup(ctx context.Context, a *app, opts docopt.Opts) error {
	email, _ := opts.String("<email>")
	password, _ := opts.String("--password")
	user, err := a.provider.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed up and logged in as %s\n", user.Email)
	return nil
}

func login(ctx context.Context, a *app, opts docopt.Opts) error {
	email, _ := opts.String("<email>")
	password, _ := opts.String("--password")
	user, err := a.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", user.Email)
	return nil
}

func logout(ctx context.Context, a *app, opts docopt.Opts) error {
	if !a.state.Current().Authenticated() {
		fmt.Println("Not logged in")
		return nil
	}
	if err := a.state.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func whoami(ctx context.Context, a *app, opts docopt.Opts) error {
	s := a.state.Current()
	if !s.Authenticated() {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("%s (%s)\n", s.Email, s.UserID)
	return nil
}

func listPosts(ctx context.Context, a *app, opts docopt.Opts) error {
	feed := services.NewFeedService(a.posts, a.comments, a.state)
	defer feed.Close()
	open := feed.Open
	if flag(opts, "--mine") {
		open = feed.OpenMine
	}
	if err := open(ctx); err != nil {
		return err
	}

	posts := feed.Posts()
	if query, _ := opts.String("--search"); query != "" {
		posts = intersect(posts, feed.Search(query))
	}

	if len(posts) == 0 {
		fmt.Println("No posts yet")
		return nil
	}
	for _, s := range feed.Summaries(posts) {
		liked := " "
		if s.Liked {
			liked = "*"
		}
		fmt.Printf("%s %s  %s\n", liked, s.Post.ID, s.Post.Title)
		fmt.Printf("    by %s on %s | %d min read | %d likes | %d comments\n",
			s.Post.Author, s.Post.CreatedAt.Local().Format(dateLayout), s.ReadingTime, s.Likes, s.Comments)
		fmt.Printf("    %s\n", strings.ReplaceAll(s.Excerpt, "\n", " "))
	}
	return nil
}

// intersect keeps the posts of a that also appear in b, in a's order.
func intersect(a, b []*models.Post) []*models.Post {
	keep := make(map[string]bool, len(b))
	for _, p := range b {
		keep[p.ID] = true
	}
	var out []*models.Post
	for _, p := range a {
		if keep[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func showPost(ctx context.Context, a *app, opts docopt.Opts) error {
	id, _ := opts.String("<id>")
	page := services.NewPostService(id, a.posts, a.comments, a.state)
	defer page.Close()
	if err := page.Open(ctx); err != nil {
		return err
	}
	post, _ := page.Post()

	fmt.Println(post.Title)
	fmt.Printf("by %s on %s%s | %d min read | %d likes\n",
		post.Author, post.CreatedAt.Local().Format(dateLayout), edited(post.UpdatedAt), post.ReadingTime(), post.LikeCount())
	fmt.Println()
	for _, p := range post.Paragraphs() {
		fmt.Println(p)
		fmt.Println()
	}

	comments := page.Comments()
	fmt.Printf("Comments (%d)\n", len(comments))
	for _, c := range comments {
		fmt.Printf("  %s %s on %s%s\n", c.ID, c.Author, c.CreatedAt.Local().Format(dateLayout), edited(c.UpdatedAt))
		fmt.Printf("    %s\n", c.Content)
	}
	return nil
}

func edited(at *time.Time) string {
	if at == nil {
		return ""
	}
	return " (edited " + at.Local().Format(dateLayout) + ")"
}

func publishPost(ctx context.Context, a *app, opts docopt.Opts) error {
	title, _ := opts.String("--title")
	content, _ := opts.String("--content")
	feed := services.NewFeedService(a.posts, a.comments, a.state)
	defer feed.Close()

	post, err := feed.Create(ctx, models.PostDraft{Title: title, Content: unescape(content)})
	if err != nil {
		return err
	}
	fmt.Printf("Published %s\n", post.ID)
	return nil
}

func editPost(ctx context.Context, a *app, opts docopt.Opts) error {
	id, _ := opts.String("<id>")
	title, titleErr := opts.String("--title")
	content, contentErr := opts.String("--content")
	if titleErr != nil && contentErr != nil {
		return apperr.Validation("posts.edit", "", "nothing to change, pass --title or --content")
	}

	page := services.NewPostService(id, a.posts, a.comments, a.state)
	defer page.Close()
	if err := page.Open(ctx); err != nil {
		return err
	}
	current, _ := page.Post()
	patch := models.PostPatch{Title: current.Title, Content: current.Content}
	if titleErr == nil {
		patch.Title = title
	}
	if contentErr == nil {
		patch.Content = unescape(content)
	}

	if _, err := page.Edit(ctx, patch); err != nil {
		return err
	}
	fmt.Printf("Updated %s\n", id)
	return nil
}

func deletePost(ctx context.Context, a *app, opts docopt.Opts) error {
	id, _ := opts.String("<id>")
	page := services.NewPostService(id, a.posts, a.comments, a.state)
	defer page.Close()
	if err := page.Open(ctx); err != nil {
		return err
	}
	if err := page.Delete(ctx); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

func likePost(ctx context.Context, a *app, opts docopt.Opts) error {
	id, _ := opts.String("<id>")
	page := services.NewPostService(id, a.posts, a.comments, a.state)
	defer page.Close()

	post, err := page.ToggleLike(ctx)
	if err != nil {
		return err
	}
	verb := "Unliked"
	if post.LikedBy(a.state.Current().UserID) {
		verb = "Liked"
	}
	fmt.Printf("%s %s (%d likes)\n", verb, id, post.LikeCount())
	return nil
}

func addComment(ctx context.Context, a *app, opts docopt.Opts) error {
	postID, _ := opts.String("<post-id>")
	text, _ := opts.String("<text>")
	thread := services.NewCommentService(postID, a.comments, a.state)
	defer thread.Close()

	comment, err := thread.Add(ctx, text)
	if err != nil {
		return err
	}
	fmt.Printf("Commented %s\n", comment.ID)
	return nil
}

func editComment(ctx context.Context, a *app, opts docopt.Opts) error {
	id, _ := opts.String("<id>")
	text, _ := opts.String("<text>")
	thread, err := threadOf(ctx, a, id)
	if err != nil {
		return err
	}
	defer thread.Close()

	if _, err := thread.Edit(ctx, id, text); err != nil {
		return err
	}
	fmt.Printf("Updated %s\n", id)
	return nil
}

func deleteComment(ctx context.Context, a *app, opts docopt.Opts) error {
	id, _ := opts.String("<id>")
	thread, err := threadOf(ctx, a, id)
	if err != nil {
		return err
	}
	defer thread.Close()

	if err := thread.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

// threadOf opens the thread that holds the comment id.
func threadOf(ctx context.Context, a *app, id string) (*services.CommentService, error) {
	comment, err := a.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	thread := services.NewCommentService(comment.BlogID, a.comments, a.state)
	if err := thread.Open(ctx); err != nil {
		thread.Close()
		return nil, err
	}
	return thread, nil
}

// unescape turns a literal \n typed on the command line into a newline.
func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
