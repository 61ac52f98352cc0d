/*
Package clients provides a Go client for the e-signature template API.

	client := clients.NewESignClient("http://localhost:8000", 30*time.Second)

	created, err := client.CreateTemplate(ctx, &api.CreateTemplateRequest{
	    Title:     "NY Exemption",
	    StateCode: "NY",
	    Fields:    fields,
	    FileName:  "ny.pdf",
	    File:      pdf,
	})

	sr, err := client.SendWithTemplate(ctx, &api.SendRequest{
	    StateCode:   "NY",
	    SignerEmail: "jane@example.com",
	    SignerName:  "Jane Doe",
	})
	// sr.SigningURL opens the embedded signing flow

Failures reported by the server come back as *interfaces.Error with the
kind the server assigned, so interfaces.KindOf works on them.
*/
package clients
