// Package domain holds the domain entities the task dispatch core reads
// and writes: member profiles (recipient resolution), insight-generation
// jobs, and wearable integrations. The broader CRUD schema around them is
// owned by collaborating services.
package domain
