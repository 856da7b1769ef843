// Package intake runs crafting-order sessions. A session asks the requester
// for an order name and the parts they want, expands rings and paired
// one-handed weapons into individual pieces, resolves every attribute of
// every piece family by family, and hands the finished order to review.
// Each session is one goroutine issuing one prompt at a time; a timeout or a
// malformed answer at any point cancels the whole order.
package intake
