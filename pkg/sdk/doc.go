// Package programdex embeds the programdex catalog and its TF-IDF retrieval
// engine in a Go process, backed by Redis.
//
//	client, err := programdex.New(ctx, programdex.WithRedis("localhost:6379", ""))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	f, _ := os.Open("programs.csv")
//	_, _ = client.Programs().ImportCSV(ctx, f)
//
//	hits, _ := client.Search(ctx, "data science masters in germany", 5)
//	reply, _ := client.Chats().Ask(ctx, "affordable computer science degrees")
//
// Imports refit the model immediately. Single-program writes are picked up
// by Programs().Retrain unless the client was built WithRefitOnWrite.
package programdex
