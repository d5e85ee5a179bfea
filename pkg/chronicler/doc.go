// Package chronicler reports application log events to a remote collector.
//
// Events are handed to a background engine that batches them and posts
// each record as JSON with bounded retry. Delivery is best-effort: the
// caller never waits for the network and never sees delivery errors.
//
// # Basic Usage
//
//	client, err := chronicler.New(chronicler.Config{
//	    BaseEndpoint: "https://logs.example.com",
//	    Key:          "my-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
//	client.Info("checkout opened")
//	client.Error("payment failed", chronicler.WithStack(trace), chronicler.WithUserID("u-42"))
//
// # Flushing
//
// Records are flushed when five are pending, immediately for error and
// fatal, and otherwise 20 seconds after the first record of a quiet
// period. [Client.Stop] and [Client.Unload] flush whatever is pending.
//
// # Identity and Page
//
// Every record carries the page it was emitted from and optionally the
// user it concerns. Use [WithPageFunc], [WithUserIDFunc] and
// [WithUsernameFunc] to resolve them once instead of per call; values
// passed with a single call win.
//
// # slog
//
// [Client.Handler] returns a log/slog handler that forwards records to
// the same engine.
package chronicler
