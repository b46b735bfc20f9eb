// Package catsearch embeds residential category search in a Go program.
//
// The client embeds a query with an OpenAI-compatible embedding endpoint
// (Mistral by default) and calls the match_categories database function,
// either through the Supabase REST gateway or over a direct Postgres
// connection.
//
//	client, _ := catsearch.New(ctx,
//	    catsearch.WithMistral(os.Getenv("MISTRAL_API_KEY")),
//	    catsearch.WithSupabase(os.Getenv("SUPABASE_CLIENT_URL"), os.Getenv("SUPABASE_SECRET_SERVICE_ROLE_KEY")),
//	)
//	defer client.Close()
//
//	results, _ := client.Search(ctx, "concrete or external groundwork",
//	    catsearch.Threshold(0.3), catsearch.Limit(5))
//	for _, r := range results {
//	    fmt.Println(r.Label)
//	}
package catsearch
