package mechanisms_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMechanisms(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mechanisms Suite")
}
