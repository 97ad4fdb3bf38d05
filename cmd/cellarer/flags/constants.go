package flags

const Verbose = `v`
const Quiet = `q`
const Plain = `p`
const Help = `h`
const Force = `force`
const NewWithTechnology = `technology`
const NewWithTopCell = `top-cell`
const NewMapMode = `map`
const NewFromTemplate = `template`
const SaveAsTarget = `as`
