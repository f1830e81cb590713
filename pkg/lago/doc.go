// Package lago is a client for the Lago usage-based billing API.
//
// It submits usage events in bulk and exposes typed, read-mostly views over
// invoices, plans, charges and subscriptions.
//
// # Uploading events
//
// UploadEvents consumes an iter.Seq of events lazily, submitting them in
// batches of at most 100 (the API maximum). Lago rejects a whole batch when
// any member's transaction_id was already ingested; the client detects that
// specific validation failure and resubmits only the members that were not
// duplicates, so rerunning an upload is safe:
//
//	client, err := lago.New("https://api.getlago.com", token)
//	if err != nil {
//	    return err
//	}
//	res, err := client.UploadEvents(ctx, events)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d / %d events were new\n", res.NewEvents, res.TotalEvents)
//
// Any other failure aborts the upload and is returned as an *HTTPError.
package lago
