/*
Package session serializes access to profiles.

A run reads a profile, mutates it through commands and writes it back. The
Manager makes that read-modify-write safe across goroutines with a
reference-counted mutex per profile and, optionally, across replicas with a
ports.DistributedLocker.
*/
package session
