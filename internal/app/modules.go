package app

import (
	"github.com/specialistvlad/procgrid/internal/customise"
	"github.com/specialistvlad/procgrid/internal/registry"
	"github.com/specialistvlad/procgrid/modules/dqm"
	"github.com/specialistvlad/procgrid/modules/filter"
	"github.com/specialistvlad/procgrid/modules/output"
	"github.com/specialistvlad/procgrid/modules/producer"
)

// coreModules is the definitive list of all modules that are compiled into
// the procgrid binary.
var coreModules = []registry.Module{
	&producer.Module{},
	&filter.Module{},
	&dqm.Module{},
	&output.Module{},
	customise.Module{},
}
