// Package articles is the client for the blog's content API.
//
// # Overview
//
// The content API exposes a single collection:
//
//	POST   {base}            create, body {title, content, tags, excerpt, status}
//	PUT    {base}/{id}       merge the given fields into an article
//	GET    {base}[?status=]  list, optionally filtered by draft/published
//	GET    {base}/{id}       fetch one article
//	DELETE {base}/{id}       remove an article
//
// Every response is a JSON object with a boolean "success" field plus either
// the payload ("article", "articles") or an "error" string.
//
// # Results
//
// Client methods never return a Go error. They return a Result whose Failure
// is set when the call did not succeed:
//
//   - FailureTransport: the API could not be reached or timed out
//   - FailureAPI: the API answered with success=false, a non-2xx status,
//     or a body outside the contract
//
// # Authentication
//
// A key configured with WithAPIKey is sent as X-API-Key on every request.
// Without one the header is omitted and the server decides.
//
// # Usage
//
//	c := articles.NewClient("http://localhost:3000/api/articles",
//	    articles.WithAPIKey(os.Getenv("API_KEY")),
//	    articles.WithTimeout(10*time.Second),
//	)
//	res := c.PublishArticle(ctx, "my-first-post")
//	if !res.OK() {
//	    log.Println(res.Failure.Message)
//	}
package articles
